package cmd

import (
	"os"

	"krakendca/internal/config"
	"krakendca/internal/constant"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "krakendca",
	Short: "Place DCA buy limit orders on kraken",
	Long: `krakendca places buy limit orders on kraken for small, periodic
dollar-cost-averaging purchases. Credentials are read from PUBLIC_KEY and
PRIVATE_KEY in the environment (a .env file is loaded when present).

Examples:
  krakendca buy --symbol XXBTZEUR --amount 10
  krakendca buy --symbol XXBTZEUR --amount 0.001 --units
  krakendca buy --symbol SOLEUR --amount 25 --buffer 0.005 --dry-run`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env first so viper's env bindings can see the keys
		_ = godotenv.Load()

		err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		logrus.SetOutput(os.Stdout)
		logrus.SetReportCaller(config.Env.Log.ShowCaller)

		if config.Env.Env == constant.ProductionEnvironment {
			logrus.SetFormatter(&logrus.JSONFormatter{})
		}

		logLevel, err := logrus.ParseLevel(config.Env.Log.LogLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(logLevel)

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: ./config.yml)")
}
