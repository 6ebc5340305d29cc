package cmd

import (
	"github.com/rdu/measures/internal/cache"
	"github.com/rdu/measures/internal/config"
	"github.com/rdu/measures/internal/jobs"
	"github.com/rdu/measures/internal/server"
	"github.com/rdu/measures/internal/service"
	"github.com/rdu/measures/internal/store"
	"github.com/rdu/measures/internal/uploads"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd())
}

func serveCmd() *cobra.Command {
	var withJobs bool

	command := &cobra.Command{
		Use:   "serve",
		Short: "run the cms server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.LoadConfig()

			db := config.GetDb(cfg)
			st := store.NewGormStore(db)
			if err := st.Migrate(); err != nil {
				logrus.Fatalf("migration failed: %v", err)
			}

			var fileStore uploads.FileStore
			if cfg.S3Endpoint != "" {
				var err error
				fileStore, err = uploads.NewMinioStore(
					cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL,
				)
				if err != nil {
					logrus.Fatalf("object store unavailable: %v", err)
				}
			} else {
				fileStore = uploads.NewLocalStore(cfg.UploadDir)
			}
			files := uploads.NewService(fileStore)

			var listings cache.MeasureCache
			if cfg.RedisAddr != "" {
				listings = cache.NewRedisMeasureCache(cfg.RedisAddr, cfg.RedisPassword)
			} else {
				listings = cache.NewNoopMeasureCache()
			}

			pages := service.NewPageService(st, files, []byte(cfg.SigningKey))
			lookup := service.NewLookupService(st)

			if withJobs {
				executor := jobs.NewTaskExecutor(nil, []jobs.CronJob{
					jobs.NewPublisher(st, pages, listings),
				})
				executor.Run()
				defer executor.Stop()
			}

			srv := server.NewServer(st, pages, lookup, files, listings)
			if err := srv.Start(":" + cfg.Port); err != nil {
				logrus.Fatalf("server stopped: %v", err)
			}
		},
	}

	command.Flags().BoolVar(&withJobs, "jobs", true, "run the scheduled publisher")

	return command
}
