package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rdu/measures/internal/cache"
	"github.com/rdu/measures/internal/config"
	"github.com/rdu/measures/internal/service"
	"github.com/rdu/measures/internal/store"
	"github.com/rdu/measures/internal/uploads"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(topicsCmd())
	rootCmd.AddCommand(listMeasuresCmd())
	rootCmd.AddCommand(listVersionsCmd())
	rootCmd.AddCommand(publishCmd())
}

func openStore() store.Store {
	return store.NewGormStore(config.GetDb(config.LoadConfig()))
}

func topicsCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "topics",
		Short: "list topics and their subtopics",
		Run: func(cmd *cobra.Command, args []string) {
			st := openStore()
			lookup := service.NewLookupService(st)

			topics, err := lookup.GetAllTopics(context.Background())
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Slug", "Title", "Subtopics"})
			for _, topic := range topics {
				var subtopics []string
				for _, subtopic := range topic.Subtopics {
					subtopics = append(subtopics, subtopic.Slug)
				}
				table.Append([]string{topic.Slug, topic.Title, strings.Join(subtopics, ", ")})
			}
			table.Render()
		},
	}

	return command
}

func listMeasuresCmd() *cobra.Command {
	var drafts bool

	command := &cobra.Command{
		Use:   "list",
		Short: "list the latest version of every measure",
		Run: func(cmd *cobra.Command, args []string) {
			st := openStore()
			lookup := service.NewLookupService(st)

			versions, err := lookup.GetLatestVersionOfAllMeasures(context.Background(), drafts)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Version", "Status", "Latest"})
			for _, mv := range versions {
				table.Append([]string{
					strconv.FormatUint(uint64(mv.ID), 10),
					mv.Title,
					mv.Version,
					string(mv.Status),
					strconv.FormatBool(mv.Latest),
				})
			}
			table.Render()
		},
	}

	command.Flags().BoolVar(&drafts, "drafts", false, "survey unpublished work instead of the public site")

	return command
}

func listVersionsCmd() *cobra.Command {
	var guid string

	var required = []string{"guid"}

	command := &cobra.Command{
		Use:     "versions",
		Short:   "list the versions of a measure lineage",
		Example: "measures versions -g <guid>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			st := openStore()

			versions, err := st.ListLineage(context.Background(), guid)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Version", "Status", "Published At", "Latest"})
			for _, mv := range versions {
				publishedAt := ""
				if mv.PublishedAt != nil {
					publishedAt = mv.PublishedAt.Format("2006-01-02 15:04:05")
				}

				version := mv.Version
				if mv.Latest {
					version += " (latest)"
				}

				table.Append([]string{
					strconv.FormatUint(uint64(mv.ID), 10),
					version,
					string(mv.Status),
					publishedAt,
					strconv.FormatBool(mv.Latest),
				})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&guid, "guid", "g", "", "lineage guid (required)")
	command.Flags().SortFlags = false

	return command
}

func publishCmd() *cobra.Command {
	var id uint

	var required = []string{"id"}

	command := &cobra.Command{
		Use:     "publish",
		Short:   "publish an approved measure version",
		Example: "measures publish -i <version-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			cfg := config.LoadConfig()
			st := store.NewGormStore(config.GetDb(cfg))
			files := uploads.NewService(uploads.NewLocalStore(cfg.UploadDir))
			pages := service.NewPageService(st, files, []byte(cfg.SigningKey))

			mv, err := pages.Publish(context.Background(), id, "cli")
			if err != nil {
				logrus.Error(err)
				return
			}

			if cfg.RedisAddr != "" {
				listings := cache.NewRedisMeasureCache(cfg.RedisAddr, cfg.RedisPassword)
				if err := listings.Invalidate(context.Background()); err != nil {
					logrus.Warnf("failed to invalidate listing cache: %v", err)
				}
			}

			color.Green("published %s %s", mv.Title, mv.Version)
		},
	}

	command.Flags().UintVarP(&id, "id", "i", 0, "measure version id (required)")
	command.Flags().SortFlags = false

	return command
}

// checkMissingFlags checks if the required flags are set and returns ok if they are set
func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if cmd.Flag(required).Changed == false {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		cmd.Println("")

		cmd.Usage()

		return true
	}

	return false
}
