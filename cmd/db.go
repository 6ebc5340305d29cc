package cmd

import (
	"github.com/rdu/measures/internal/config"
	"github.com/rdu/measures/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
	dbCmd.AddCommand(Seed())
}

func Migrate() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database",
		Run: func(cmd *cobra.Command, args []string) {
			db := config.GetDb(config.LoadConfig())
			err := model.Migrate(db)
			if err != nil {
				panic(err)
			}
		},
	}

	return command
}

// Seed loads the reference tables a fresh installation needs before editors
// can fill in forms.
func Seed() *cobra.Command {
	command := &cobra.Command{
		Use:   "seed",
		Short: "Seed the reference tables",
		Run: func(cmd *cobra.Command, args []string) {
			db := config.GetDb(config.LoadConfig())

			statistics := []*model.TypeOfStatistic{
				{Internal: "National", External: "National Statistics (certified against a Code of Practice)", Position: 1},
				{Internal: "Official", External: "Official statistics", Position: 2},
				{Internal: "Experimental", External: "Experimental statistics", Position: 3},
				{Internal: "Non-official", External: "Non-official statistics", Position: 4},
			}
			for _, s := range statistics {
				if err := db.FirstOrCreate(s, model.TypeOfStatistic{Internal: s.Internal}).Error; err != nil {
					panic(err)
				}
			}

			frequencies := []*model.FrequencyOfRelease{
				{Description: "Monthly", Position: 1},
				{Description: "Quarterly", Position: 2},
				{Description: "Twice a year", Position: 3},
				{Description: "Yearly", Position: 4},
				{Description: "Every 2 years", Position: 5},
				{Description: "Ad-hoc", Position: 6},
				{Description: "Other", Position: 7},
			}
			for _, f := range frequencies {
				if err := db.FirstOrCreate(f, model.FrequencyOfRelease{Description: f.Description}).Error; err != nil {
					panic(err)
				}
			}

			geographies := []*model.LowestLevelOfGeography{
				{Name: "UK", Position: 1},
				{Name: "Country", Position: 2},
				{Name: "Region", Position: 3},
				{Name: "Local authority upper", Position: 4},
				{Name: "Local authority lower", Position: 5},
				{Name: "Police force area", Position: 6},
				{Name: "Clinical commissioning group", Position: 7},
			}
			for _, g := range geographies {
				if err := db.FirstOrCreate(g, model.LowestLevelOfGeography{Name: g.Name}).Error; err != nil {
					panic(err)
				}
			}

			logrus.Info("reference tables seeded")
		},
	}

	return command
}
