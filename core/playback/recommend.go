package playback

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"playpod/core/deezer"
	"playpod/logger"
	"playpod/model"
	"playpod/repository"

	"github.com/google/uuid"
)

// artistsForRecommendation 参与推荐的最近艺人数量
const artistsForRecommendation = 5

// candidates 去重并按上限收集候选曲目
type candidates struct {
	exclude map[string]bool
	seen    map[string]bool
	tracks  []model.DeezerTrack
	limit   int
}

func newCandidates(limit int, exclude map[string]bool) *candidates {
	return &candidates{exclude: exclude, seen: make(map[string]bool), limit: limit}
}

// add 返回是否已达到上限
func (c *candidates) add(tracks []model.DeezerTrack) bool {
	for _, t := range tracks {
		if c.full() {
			break
		}
		id := strconv.FormatInt(t.ID, 10)
		if t.ID <= 0 || c.exclude[id] || c.seen[id] {
			continue
		}
		c.seen[id] = true
		c.tracks = append(c.tracks, t)
	}
	return c.full()
}

func (c *candidates) full() bool {
	return len(c.tracks) >= c.limit
}

// Recommendations 根据最近播放生成推荐，结果按用户缓存
func (s *Service) Recommendations(ctx context.Context, userID string) ([]model.DeezerTrack, error) {
	if s.recs != nil {
		cached, ok, err := s.recs.Get(ctx, userID)
		if err != nil {
			logger.Warn("[Recommend] 读取推荐缓存失败", logger.String("user", userID), logger.ErrorField(err))
		} else if ok {
			return cached, nil
		}
	}

	recent, err := s.store.Repos().History.Recent(ctx, userID, s.opts.HistoryPage, nil)
	if err != nil {
		return nil, err
	}
	exclude := make(map[string]bool, len(recent))
	for _, h := range recent {
		exclude[h.TrackID] = true
	}

	c := newCandidates(s.opts.RecommendationCap, exclude)
	s.collectRecommendations(ctx, c, recent)

	tracks := c.tracks
	if tracks == nil {
		tracks = []model.DeezerTrack{}
	}
	if s.recs != nil && len(tracks) > 0 {
		if err := s.recs.Set(ctx, userID, tracks); err != nil {
			logger.Warn("[Recommend] 写入推荐缓存失败", logger.String("user", userID), logger.ErrorField(err))
		}
	}
	return tracks, nil
}

// forgetRecommendations 播放历史变化后丢弃该用户的推荐缓存
func (s *Service) forgetRecommendations(ctx context.Context, userID string) {
	if s.recs == nil {
		return
	}
	if err := s.recs.Invalidate(ctx, userID); err != nil {
		logger.Warn("[Recommend] 清除推荐缓存失败", logger.String("user", userID), logger.ErrorField(err))
	}
}

// collectRecommendations 依次尝试：最近曲目的相关曲目、最近艺人的热门曲目、最常听的流派、排行榜
func (s *Service) collectRecommendations(ctx context.Context, c *candidates, recent []model.HistoryEntry) {
	if len(recent) > 0 {
		related, err := s.provider.RelatedTracks(ctx, recent[0].TrackID, c.limit*2)
		if err != nil {
			logger.Warn("[Recommend] 获取相关曲目失败", logger.String("track", recent[0].TrackID), logger.ErrorField(err))
		} else if c.add(related) {
			return
		}
	}

	for _, artistID := range recentArtists(recent, artistsForRecommendation) {
		top, err := s.provider.ArtistTopTracks(ctx, artistID, s.opts.RelatedPerTrack)
		if err != nil {
			logger.Warn("[Recommend] 获取艺人热门曲目失败", logger.String("artist", artistID), logger.ErrorField(err))
			continue
		}
		if c.add(top) {
			return
		}
	}

	if genreID := topGenre(recent); genreID != "" {
		tracks, err := s.provider.GenreTracks(ctx, genreID, c.limit*2)
		if err != nil {
			logger.Warn("[Recommend] 获取流派曲目失败", logger.String("genre", genreID), logger.ErrorField(err))
		} else if c.add(tracks) {
			return
		}
	}

	charts, err := s.provider.ChartTracks(ctx, c.limit*2)
	if err != nil {
		logger.Warn("[Recommend] 获取排行榜失败", logger.ErrorField(err))
		return
	}
	c.add(charts)
}

// recentArtists 按最近播放顺序返回不重复的艺人ID
func recentArtists(recent []model.HistoryEntry, limit int) []string {
	seen := make(map[string]bool)
	var artists []string
	for _, h := range recent {
		if h.ArtistID == "" || seen[h.ArtistID] {
			continue
		}
		seen[h.ArtistID] = true
		artists = append(artists, h.ArtistID)
		if len(artists) == limit {
			break
		}
	}
	return artists
}

// topGenre 出现次数最多的流派，次数相同时取最近出现的
func topGenre(recent []model.HistoryEntry) string {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i, h := range recent {
		if h.GenreID == "" {
			continue
		}
		if _, ok := first[h.GenreID]; !ok {
			first[h.GenreID] = i
		}
		counts[h.GenreID]++
	}
	if len(counts) == 0 {
		return ""
	}

	genres := make([]string, 0, len(counts))
	for g := range counts {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return first[genres[i]] < first[genres[j]]
	})
	return genres[0]
}

// PlayRecommendation 用推荐曲目及其相关曲目替换队列并开始播放
func (s *Service) PlayRecommendation(ctx context.Context, userID, trackID string) (*model.QueueState, error) {
	id, err := normalizeID(trackID)
	if err != nil {
		return nil, err
	}

	var state *model.QueueState
	err = s.withLock(ctx, queueLockKey(userID), func() error {
		track, err := s.provider.GetTrack(ctx, id)
		if err != nil {
			return deezer.AsModelError(err, "Track "+id)
		}

		refs := []model.TrackRef{track.Ref()}
		related, err := s.provider.RelatedTracks(ctx, id, s.opts.PlayRecommendationRelated)
		if err != nil {
			logger.Warn("[Recommend] 获取相关曲目失败，只播放所选曲目",
				logger.String("track", id), logger.ErrorField(err))
		}
		c := newCandidates(s.opts.PlayRecommendationRelated, map[string]bool{id: true})
		c.add(related)
		for i := range c.tracks {
			refs = append(refs, c.tracks[i].Ref())
		}

		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			state, err = s.replaceQueue(ctx, r, userID, refs)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	s.forgetRecommendations(ctx, userID)
	return state, nil
}

// GenerateInput 按流派生成歌单的参数
type GenerateInput struct {
	Genre    string `json:"genre"`
	GenreID  string `json:"genre_id"`
	Name     string `json:"name"`
	IsPublic bool   `json:"is_public"`
}

// GeneratedPlaylist 生成的歌单和曲目
type GeneratedPlaylist struct {
	Playlist *model.Playlist  `json:"playlist"`
	Tracks   []model.ListTrack `json:"tracks"`
}

// GeneratePlaylist 从流派排行榜生成歌单，排行榜为空时退回到按流派名搜索
func (s *Service) GeneratePlaylist(ctx context.Context, userID string, in GenerateInput) (*GeneratedPlaylist, error) {
	genreName := strings.TrimSpace(in.Genre)
	genreID := strings.TrimSpace(in.GenreID)
	if genreName == "" && genreID == "" {
		return nil, model.Validation("genre or genre_id is required")
	}

	if genreID != "" && genreName == "" {
		genre, err := s.provider.GetGenre(ctx, genreID)
		if err != nil {
			return nil, deezer.AsModelError(err, "Genre "+genreID)
		}
		genreName = genre.Name
	}

	var found []model.DeezerTrack
	if genreID != "" {
		tracks, err := s.provider.GenreTracks(ctx, genreID, s.opts.GeneratedPlaylistSize)
		if err != nil {
			logger.Warn("[Generate] 获取流派排行榜失败", logger.String("genre", genreID), logger.ErrorField(err))
		}
		found = tracks
	}
	if len(found) == 0 && genreName != "" {
		tracks, err := s.provider.SearchTracks(ctx, fmt.Sprintf("genre:%q", genreName), s.opts.GeneratedPlaylistSize)
		if err != nil {
			return nil, deezer.AsModelError(err, "Genre "+genreName)
		}
		found = tracks
	}

	c := newCandidates(s.opts.GeneratedPlaylistSize, nil)
	c.add(found)
	if len(c.tracks) == 0 {
		return nil, model.NotFound("No tracks found for genre %s", genreName)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = genreName + " Mix"
	}
	name, err := validatePlaylistName(name)
	if err != nil {
		return nil, err
	}

	refs := make([]model.TrackRef, len(c.tracks))
	for i := range c.tracks {
		refs[i] = c.tracks[i].Ref()
		if refs[i].Genre == "" {
			refs[i].Genre = genreName
		}
		if refs[i].GenreID == "" {
			refs[i].GenreID = genreID
		}
	}

	out := &GeneratedPlaylist{Playlist: &model.Playlist{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: fmt.Sprintf("Generated from %s", genreName),
		IsPublic:    in.IsPublic,
	}}
	err = s.store.Transaction(ctx, func(r *repository.Repositories) error {
		if err := r.Playlists.Create(ctx, out.Playlist); err != nil {
			return err
		}
		out.Tracks, err = s.list(r, out.Playlist.ID).Replace(ctx, refs)
		return err
	})
	if err != nil {
		return nil, err
	}
	out.Playlist.TracksCount = len(out.Tracks)

	logger.Info("[Generate] 生成流派歌单",
		logger.String("user", userID),
		logger.String("genre", genreName),
		logger.Int("tracks", len(out.Tracks)))
	return out, nil
}
