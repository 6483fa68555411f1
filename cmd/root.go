package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/capscope/capscope/internal/utils"
	"github.com/capscope/capscope/pkg/admin"
	"github.com/capscope/capscope/pkg/analytics"
	"github.com/capscope/capscope/pkg/intake"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	                                          
	  ___ __ _ _ __  ___  ___ ___  _ __   ___ 
	 / __/ _' | '_ \/ __|/ __/ _ \| '_ \ / _ \
	| (_| (_| | |_) \__ \ (_| (_) | |_) |  __/
	 \___\__,_| .__/|___/\___\___/| .__/ \___|
	          |_|                 |_|         

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "capscope",
	Short: "Admissions cutoff data tooling for CAP rounds.",
	Long: LOGO + `capscope keeps the per-round cutoff datasets up to date and answers seat intake
questions, right from your command line.

Merge new CAP round extracts into the canonical stores without ever touching
existing colleges, and look up how many seats a branch offered year by year.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.capscope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

func setDefaults() {
	viper.SetDefault("data.dir", ".")
	viper.SetDefault("merge.concurrency", 1)
	viper.SetDefault("intake.source", intake.DefaultSource)
	viper.SetDefault("analytics.enabled", false)
	viper.SetDefault("analytics.endpoint", analytics.DefaultEndpoint)
	viper.SetDefault("analytics.identity_file", "~/.capscope/visitor-id")
	viper.SetDefault("admin.endpoint", admin.DefaultEndpoint)
	viper.SetDefault("admin.token_file", "~/.capscope/admin-token")
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
	viper.SetDefault("db.path", "capscope.sqlite")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".capscope")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CAPSCOPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.capscope.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
	analytics.SetLogger(utils.Log)
}
