package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"playpod/logger"
	"playpod/model"
)

// quotaExceeded Deezer 的限流错误码
const quotaExceeded = 4

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type envelope struct {
	Error *apiError `json:"error"`
}

type trackList struct {
	Data []model.DeezerTrack `json:"data"`
}

// get 请求 path 并把响应解析到 out
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + "/" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("[Deezer] 请求失败", logger.String("path", path), logger.ErrorField(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("[Deezer] 返回错误状态码", logger.String("path", path), logger.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	// Deezer 出错时仍返回 200，响应体带 error 字段
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if env.Error != nil {
		if env.Error.Code == quotaExceeded {
			return fmt.Errorf("%w: %s", ErrUnavailable, env.Error.Message)
		}
		logger.Debug("[Deezer] 资源不存在", logger.String("path", path), logger.String("message", env.Error.Message))
		return fmt.Errorf("%w: %s", ErrTrackNotFound, env.Error.Message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}

func limitQuery(limit int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func (c *Client) getTracks(ctx context.Context, path string, query url.Values) ([]model.DeezerTrack, error) {
	var list trackList
	if err := c.get(ctx, path, query, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// GetTrack 获取曲目详情
func (c *Client) GetTrack(ctx context.Context, id string) (*model.DeezerTrack, error) {
	var track model.DeezerTrack
	if err := c.get(ctx, "track/"+url.PathEscape(id), nil, &track); err != nil {
		return nil, err
	}
	if track.ID == 0 {
		return nil, fmt.Errorf("%w: track %s", ErrTrackNotFound, id)
	}
	return &track, nil
}

// RelatedTracks 相似曲目
func (c *Client) RelatedTracks(ctx context.Context, id string, limit int) ([]model.DeezerTrack, error) {
	return c.getTracks(ctx, "track/"+url.PathEscape(id)+"/related", limitQuery(limit))
}

// GenreTracks 流派排行榜曲目
func (c *Client) GenreTracks(ctx context.Context, genreID string, limit int) ([]model.DeezerTrack, error) {
	return c.getTracks(ctx, "chart/"+url.PathEscape(genreID)+"/tracks", limitQuery(limit))
}

// GetGenre 流派信息
func (c *Client) GetGenre(ctx context.Context, id string) (*model.DeezerGenre, error) {
	var genre model.DeezerGenre
	if err := c.get(ctx, "genre/"+url.PathEscape(id), nil, &genre); err != nil {
		return nil, err
	}
	if genre.Name == "" {
		return nil, fmt.Errorf("%w: genre %s", ErrTrackNotFound, id)
	}
	return &genre, nil
}

// ChartTracks 总榜
func (c *Client) ChartTracks(ctx context.Context, limit int) ([]model.DeezerTrack, error) {
	return c.getTracks(ctx, "chart/0/tracks", limitQuery(limit))
}

// SearchTracks 搜索曲目
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]model.DeezerTrack, error) {
	q := limitQuery(limit)
	q.Set("q", query)
	return c.getTracks(ctx, "search", q)
}

// ArtistTopTracks 艺人热门曲目
func (c *Client) ArtistTopTracks(ctx context.Context, artistID string, limit int) ([]model.DeezerTrack, error) {
	return c.getTracks(ctx, "artist/"+url.PathEscape(artistID)+"/top", limitQuery(limit))
}
