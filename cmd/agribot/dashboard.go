package main

import (
	"fmt"

	"github.com/smartroots/agribot/internal/auth"
	"github.com/smartroots/agribot/internal/backend"
	"github.com/smartroots/agribot/internal/config"
	"github.com/smartroots/agribot/internal/dashboard"
	"github.com/smartroots/agribot/internal/logger"
	"github.com/spf13/cobra"
)

var (
	dashEmail    string
	dashPassword string
	dashCity     string
	dashYield    bool
	dashMarket   bool
	dashAsk      string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Load the advisory dashboard once and print it",
	Long: `Run the full dashboard load sequence against the backend and print
the result: sensor readings, recommended crop, forecast and weather
advice, plus the optional yield, market and chat sections.`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashEmail, "email", "", "account email (when no stored session exists)")
	dashboardCmd.Flags().StringVar(&dashPassword, "password", "", "account password")
	dashboardCmd.Flags().StringVar(&dashCity, "city", "", "forecast city (overrides config)")
	dashboardCmd.Flags().BoolVar(&dashYield, "yield", false, "also load the yield prediction")
	dashboardCmd.Flags().BoolVar(&dashMarket, "market", false, "also load market prices")
	dashboardCmd.Flags().StringVar(&dashAsk, "ask", "", "ask the assistant one question")

	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	ctx := cmd.Context()

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	sessions := auth.NewStore(client, auth.NewTokenFile(cfg.Session.TokenFile), log)
	sessions.Restore(ctx)

	if !sessions.IsAuthenticated() {
		if dashEmail == "" || dashPassword == "" {
			return fmt.Errorf("no stored session; pass --email and --password to sign in")
		}
		if result := sessions.Login(ctx, dashEmail, dashPassword); !result.Success {
			return fmt.Errorf("login failed: %s", result.Error)
		}
	}

	city := cfg.Weather.City
	if dashCity != "" {
		city = dashCity
	}

	dash := dashboard.New(client,
		dashboard.WithLogger(log),
		dashboard.WithCity(city),
	)

	if err := dash.Load(ctx); err != nil {
		return fmt.Errorf("loading dashboard: %w", err)
	}

	if dashYield {
		if err := dash.EnsureYield(ctx); err != nil {
			log.Warn("yield section unavailable")
		}
	}
	if dashMarket {
		if err := dash.EnsureMarket(ctx); err != nil {
			log.Warn("market section unavailable")
		}
	}
	if dashAsk != "" {
		if _, err := dash.SubmitChat(ctx, dashAsk); err != nil {
			return fmt.Errorf("chat failed: %w", err)
		}
	}

	printState(dash.State())
	return nil
}

func printState(st dashboard.State) {
	fmt.Println("=== AgriBot Dashboard ===")
	if st.SensorData != nil {
		s := st.SensorData
		fmt.Printf("Sensors:  %.1f°C  %.0f%% humidity  pH %.1f  rainfall %.0fmm\n",
			s.Temperature, s.Humidity, s.PH, s.Rainfall)
		fmt.Printf("NPK:      N %.0f  P %.0f  K %.0f\n", s.N, s.P, s.K)
	}
	if st.RecommendedCrop != "" {
		fmt.Printf("Crop:     %s\n", st.RecommendedCrop)
	}

	if len(st.Forecast) > 0 {
		fmt.Println("\nForecast:")
		for _, day := range st.Forecast {
			fmt.Printf("  %-10s %5.1f°C  %s\n", day.Day, day.Temp, day.Description)
		}
	}
	if st.WeatherRecommendations != "" {
		fmt.Printf("\nAdvice:\n  %s\n", st.WeatherRecommendations)
	}

	if st.Yield != nil {
		fmt.Printf("\nPredicted yield: %.2f t/ha\n", st.Yield.PredictedYield)
	} else if st.YieldError != "" {
		fmt.Printf("\nYield: %s\n", st.YieldError)
	}

	if len(st.Markets) > 0 {
		fmt.Println("\nMarkets:")
		for i, m := range st.Markets {
			fmt.Printf("  %d. %-24s ₹%.0f/quintal\n", i+1, m.Market, m.AvgPrice)
		}
	} else if st.MarketError != "" {
		fmt.Printf("\nMarkets: %s\n", st.MarketError)
	}

	if len(st.Messages) > 0 {
		fmt.Println("\nChat:")
		for _, msg := range st.Messages {
			fmt.Printf("  [%s] %s\n", msg.Role, msg.Text)
		}
	}

	if st.Error != "" {
		fmt.Printf("\nError: %s\n", st.Error)
	}
}
