package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/awaistahir/solarhub/internal/config"
	"github.com/awaistahir/solarhub/internal/engine"
	"github.com/awaistahir/solarhub/internal/service"
	"github.com/awaistahir/solarhub/internal/store"
	"github.com/awaistahir/solarhub/internal/weather"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "solarhub",
		Short: "SolarHub - Forecast a day of solar production, battery and grid use",
		Long: `SolarHub combines your panel and battery setup, your household load
and today's weather into an hour-by-hour energy forecast.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.solarhub/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "database path (default is $HOME/.solarhub/solarhub.db)")
	rootCmd.PersistentFlags().String("household", "", "household ID (default is \"default\")")
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("household", rootCmd.PersistentFlags().Lookup("household"))

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(locationCmd())
	rootCmd.AddCommand(systemCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(applianceCmd())
	rootCmd.AddCommand(weatherCmd())
	rootCmd.AddCommand(forecastCmd())
	rootCmd.AddCommand(simulateCmd())

	return rootCmd
}

func initConfig() {
	config.SetDefaults(viper.GetViper())
	if err := config.Init(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func settings() config.Settings {
	return config.Load(viper.GetViper())
}

func openStore() (*store.Store, config.Settings, error) {
	s := settings()
	if err := os.MkdirAll(filepath.Dir(s.DBPath), 0755); err != nil {
		return nil, s, err
	}
	st, err := store.NewStore(s.DBPath)
	if err != nil {
		return nil, s, fmt.Errorf("opening database: %w", err)
	}
	return st, s, nil
}

func initCmd() *cobra.Command {
	var name string
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize SolarHub with a household and default system",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, s, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			household := &engine.Household{ID: s.HouseholdID, Name: name}
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				household.Location = &engine.Location{Latitude: lat, Longitude: lon}
			}
			if err := st.SaveHousehold(household); err != nil {
				return err
			}
			if err := st.SaveSystem(s.HouseholdID, engine.DefaultSystemConfig()); err != nil {
				return err
			}
			if err := st.SaveLoadProfile(s.HouseholdID, engine.AverageLoad(0)); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Initialized household %q\n", s.HouseholdID)
			fmt.Fprintf(out, "Database: %s\n", s.DBPath)
			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintln(out, "  1. Set location:   solarhub location set --lat 51.5 --lon -0.13")
			fmt.Fprintln(out, "  2. Describe system: solarhub system set --panel-kwp 5 --battery-kwh 10")
			fmt.Fprintln(out, "  3. Describe load:   solarhub load average --daily-kwh 20")
			fmt.Fprintln(out, "  4. Forecast:        solarhub forecast")

			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "My Household", "Household name")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude (degrees)")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude (degrees)")

	return cmd
}

func locationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Manage the household location",
	}

	var lat, lon float64
	set := &cobra.Command{
		Use:   "set",
		Short: "Set the household latitude and longitude",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := &engine.Location{Latitude: lat, Longitude: lon}
			if err := loc.Validate(); err != nil {
				return err
			}

			st, s, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			household, err := st.GetHousehold(s.HouseholdID)
			if err != nil {
				return fmt.Errorf("getting household: %w (run 'solarhub init' first)", err)
			}
			household.Location = loc
			if err := st.SaveHousehold(household); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Location set to %.4f, %.4f\n", lat, lon)
			return nil
		},
	}
	set.Flags().Float64Var(&lat, "lat", 0, "Latitude (degrees)")
	set.Flags().Float64Var(&lon, "lon", 0, "Longitude (degrees)")
	set.MarkFlagRequired("lat")
	set.MarkFlagRequired("lon")

	cmd.AddCommand(set)
	return cmd
}

func systemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Manage the solar panel and battery configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the system configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, s, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			cfg, err := st.GetSystem(s.HouseholdID)
			if err != nil {
				return err
			}
			printSystem(cmd.OutOrStdout(), cfg)
			return nil
		},
	})

	var panelKWp, tilt, batteryKWh, soc float64
	var batteryType string
	var autoTilt bool

	set := &cobra.Command{
		Use:   "set",
		Short: "Update the system configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, s, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			cfg, err := st.GetSystem(s.HouseholdID)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("panel-kwp") {
				cfg.PanelCapacityKWp = panelKWp
			}
			if flags.Changed("tilt") {
				cfg.PanelTiltDeg = &tilt
			}
			if autoTilt {
				cfg.PanelTiltDeg = nil
			}
			if flags.Changed("battery-type") {
				cfg.BatteryType = engine.BatteryType(batteryType)
			}
			if flags.Changed("battery-kwh") {
				cfg.BatteryKWh = batteryKWh
			}
			if flags.Changed("soc") {
				cfg.BatterySoC = soc
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := st.SaveSystem(s.HouseholdID, cfg); err != nil {
				return err
			}
			printSystem(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
	set.Flags().Float64Var(&panelKWp, "panel-kwp", 0, "Panel capacity (kWp)")
	set.Flags().Float64Var(&tilt, "tilt", 0, "Panel tilt (degrees)")
	set.Flags().BoolVar(&autoTilt, "auto-tilt", false, "Derive the tilt from latitude")
	set.Flags().StringVar(&batteryType, "battery-type", "", "Battery chemistry (li_ion, lead_acid)")
	set.Flags().Float64Var(&batteryKWh, "battery-kwh", 0, "Battery capacity (kWh)")
	set.Flags().Float64Var(&soc, "soc", 0, "Current battery state of charge (%)")
	set.MarkFlagsMutuallyExclusive("tilt", "auto-tilt")

	cmd.AddCommand(set)
	return cmd
}

func printSystem(w io.Writer, cfg engine.SystemConfig) {
	tilt := "auto (latitude)"
	if cfg.PanelTiltDeg != nil {
		tilt = fmt.Sprintf("%.1f°", *cfg.PanelTiltDeg)
	}
	fmt.Fprintf(w, "Panels:   %.2f kWp, tilt %s\n", cfg.PanelCapacityKWp, tilt)
	fmt.Fprintf(w, "Battery:  %.2f kWh %s (%.0f%% efficient)\n",
		cfg.BatteryKWh, cfg.BatteryType.DisplayName(), cfg.BatteryEfficiency()*100)
	fmt.Fprintf(w, "Charge:   %.1f%%\n", cfg.BatterySoC)
}

func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Manage the household load profile",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the load profile and its hourly consumption",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, s, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			profile, err := st.GetLoadProfile(s.HouseholdID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Profile: %s\n", profile.Kind)
			if profile.Kind == engine.LoadProfileAverage {
				fmt.Fprintf(out, "Average: %.2f kWh/day\n", profile.AverageDailyKWh)
			} else {
				printAppliances(out, profile.Appliances)
			}

			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "HOUR\tKWH\t")
			for h, kwh := range engine.HourlyConsumption(profile) {
				fmt.Fprintf(tw, "%02d\t%.3f\t\n", h, kwh)
			}
			return tw.Flush()
		},
	})

	var dailyKWh float64
	average := &cobra.Command{
		Use:   "average",
		Short: "Use a single average daily consumption",
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateProfile(cmd.OutOrStdout(), func(p *engine.LoadProfile) {
				p.Kind = engine.LoadProfileAverage
				p.AverageDailyKWh = dailyKWh
			})
		},
	}
	average.Flags().Float64VarP(&dailyKWh, "daily-kwh", "k", 0, "Average daily consumption (kWh)")
	average.MarkFlagRequired("daily-kwh")
	cmd.AddCommand(average)

	cmd.AddCommand(&cobra.Command{
		Use:   "schedule",
		Short: "Use the appliance schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateProfile(cmd.OutOrStdout(), func(p *engine.LoadProfile) {
				p.Kind = engine.LoadProfileSchedule
			})
		},
	})

	return cmd
}

func updateProfile(out io.Writer, edit func(p *engine.LoadProfile)) error {
	st, s, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	profile, err := st.GetLoadProfile(s.HouseholdID)
	if err != nil {
		return err
	}
	edit(&profile)
	if err := st.SaveLoadProfile(s.HouseholdID, profile); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Load profile: %s\n", profile.Kind)
	return nil
}

func applianceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appliance",
		Short: "Manage scheduled appliances",
	}

	cmd.AddCommand(applianceAddCmd())
	cmd.AddCommand(applianceListCmd())
	cmd.AddCommand(applianceRemoveCmd())

	return cmd
}

func applianceAddCmd() *cobra.Command {
	var name string
	var watts float64
	var start, end int
	var allDay bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an appliance to the schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			appliance := engine.ApplianceLoad{
				Name:       name,
				PowerWatts: watts,
				StartHour:  start,
				EndHour:    end,
				AllDay:     allDay,
			}
			if err := appliance.Validate(); err != nil {
				return err
			}

			st, s, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			appliance, err = st.AddAppliance(s.HouseholdID, appliance)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Added appliance: %s\n", name)
			fmt.Fprintf(out, "  ID: %s\n", appliance.ID)
			fmt.Fprintf(out, "  Power: %.0f W\n", watts)
			if allDay {
				fmt.Fprintln(out, "  Runs: all day")
			} else {
				fmt.Fprintf(out, "  Runs: %02d:00 - %02d:59\n", start, end)
			}

			profile, err := st.GetLoadProfile(s.HouseholdID)
			if err == nil && profile.Kind != engine.LoadProfileSchedule {
				fmt.Fprintln(out, "\nNote: the load profile uses a daily average; run 'solarhub load schedule' to use appliances")
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Appliance name (required)")
	cmd.Flags().Float64VarP(&watts, "watts", "w", 0, "Power draw (W)")
	cmd.Flags().IntVar(&start, "start", 0, "First hour the appliance runs (0-23)")
	cmd.Flags().IntVar(&end, "end", 0, "Last hour the appliance runs (0-23)")
	cmd.Flags().BoolVar(&allDay, "all-day", false, "Runs continuously")

	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("watts")

	return cmd
}

func applianceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all appliances",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, s, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			appliances, err := st.GetAppliances(s.HouseholdID)
			if err != nil {
				return err
			}

			if len(appliances) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No appliances configured")
				return nil
			}

			printAppliances(cmd.OutOrStdout(), appliances)
			return nil
		},
	}
}

func applianceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an appliance from the schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, s, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteAppliance(s.HouseholdID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed appliance %s\n", args[0])
			return nil
		},
	}
}

func printAppliances(w io.Writer, appliances []engine.ApplianceLoad) {
	fmt.Fprintf(w, "%-24s %-36s %8s %13s\n", "NAME", "ID", "WATTS", "HOURS")
	fmt.Fprintln(w, "-------------------------------------------------------------------------------------")
	for _, a := range appliances {
		hours := fmt.Sprintf("%02d-%02d", a.StartHour, a.EndHour)
		if a.AllDay {
			hours = "all day"
		}
		fmt.Fprintf(w, "%-24s %-36s %8.0f %13s\n", a.Name, a.ID, a.PowerWatts, hours)
	}
}

func newService(st *store.Store, s config.Settings) *service.Service {
	return service.New(st, weather.NewOpenMeteoClient(s.WeatherBaseURL, s.WeatherTimeout))
}

func weatherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weather",
		Short: "Fetch today's hourly temperature and irradiance",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, s, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			w, _, err := newService(st, s).Weather(context.Background(), s.HouseholdID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), w)
		},
	}
}

func forecastCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast today's production, battery and grid use",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, s, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := newService(st, s).Forecast(context.Background(), s.HouseholdID)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return printForecast(cmd.OutOrStdout(), res.Forecast)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
