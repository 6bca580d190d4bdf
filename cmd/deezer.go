package cmd

import (
	"fmt"
	"strconv"

	"playpod/core/deezer"
	"playpod/model"

	"github.com/spf13/cobra"
)

var searchLimit int

func newDeezerClient() *deezer.Client {
	client := deezer.NewClient()
	client.SetBaseURL(cfg.DeezerAPIURL)
	client.SetTimeout(cfg.DeezerTimeout)
	return client
}

func printTracks(tracks []model.DeezerTrack) {
	if len(tracks) == 0 {
		fmt.Println("未找到相关曲目")
		return
	}
	for i, t := range tracks {
		fmt.Printf("%2d. [%d] %s - %s [%s]\n", i+1, t.ID, t.Title, t.Artist.Name, t.Album.Title)
	}
}

var deezerCmd = &cobra.Command{
	Use:   "deezer",
	Short: "Deezer 元数据查询工具",
}

var deezerTrackCmd = &cobra.Command{
	Use:   "track <id>",
	Short: "查询单首曲目",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := newDeezerClient().GetTrack(cmd.Context(), args[0])
		if err != nil {
			return deezer.AsModelError(err, "Track "+args[0])
		}
		ref := track.Ref()
		fmt.Printf("曲目: %s\n艺人: %s\n专辑: %s\n时长: %ds\n", ref.Title, ref.ArtistName, ref.AlbumTitle, ref.Duration)
		if track.Preview != "" {
			fmt.Printf("试听: %s\n", track.Preview)
		}
		return nil
	},
}

var deezerSearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "搜索曲目",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("正在搜索: %s\n", args[0])
		tracks, err := newDeezerClient().SearchTracks(cmd.Context(), args[0], searchLimit)
		if err != nil {
			return deezer.AsModelError(err, "Search")
		}
		printTracks(tracks)
		return nil
	},
}

var deezerRelatedCmd = &cobra.Command{
	Use:   "related <id>",
	Short: "查询相关曲目",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
			return fmt.Errorf("无效的曲目ID: %s", args[0])
		}
		tracks, err := newDeezerClient().RelatedTracks(cmd.Context(), args[0], searchLimit)
		if err != nil {
			return deezer.AsModelError(err, "Track "+args[0])
		}
		printTracks(tracks)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deezerCmd)
	deezerCmd.AddCommand(deezerTrackCmd, deezerSearchCmd, deezerRelatedCmd)
	deezerCmd.PersistentFlags().IntVarP(&searchLimit, "limit", "l", 10, "返回结果数量")
}
