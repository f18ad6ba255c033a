package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/RandomUserLabs/persondb/internal/config"
	"github.com/RandomUserLabs/persondb/internal/database"
	"github.com/RandomUserLabs/persondb/internal/ingest"
	"github.com/RandomUserLabs/persondb/internal/logging"
	"github.com/RandomUserLabs/persondb/internal/person"
	"github.com/RandomUserLabs/persondb/internal/report"
	"github.com/RandomUserLabs/persondb/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const cliDateLayout = "2006-01-02"

var cfgFile string

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "persondb",
		Short: "Ingest randomuser person dumps into SQLite and report over them",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}

	setupFlags(rootCmd)

	rootCmd.AddCommand(
		newLoadCommand(),
		newGenderPercentageCommand(),
		newAverageAgeCommand(),
		newMostCommonCitiesCommand(),
		newMostCommonPasswordsCommand(),
		newDateRangeCommand(),
		newSafestPasswordCommand(),
		newPrintAllCommand(),
		newServeCommand(),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("source", defaults.GetString("source.path"), "Path to the person dump JSON file")
	cmd.PersistentFlags().Bool("load-data", false, "Drop existing tables and reload everything from the source file")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address for the serve command")

	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "source.path", "source")
	bindFlag(cmd, "ingest.load_data", "load-data")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "http.address", "http-address")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// app bundles the process-scoped resources behind every subcommand: one
// configuration, one logger, one database connection.
type app struct {
	cfg     config.AppConfig
	logger  *zap.Logger
	reports *report.Service
	summary ingest.Summary
	closers []func()
}

func (a *app) close() {
	for index := len(a.closers) - 1; index >= 0; index-- {
		a.closers[index]()
	}
}

// setupApp opens the storage connection and runs the ingestion pass every
// invocation performs: destructive when --load-data was given, otherwise an
// idempotent pass that picks up any new records from the source file.
func setupApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	application := &app{cfg: cfg, logger: logger}
	application.closers = append(application.closers, func() {
		logger.Sync() //nolint:errcheck
	})

	db, err := database.OpenSQLite(cfg.DatabasePath, logger)
	if err != nil {
		application.close()
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		application.close()
		return nil, err
	}
	application.closers = append(application.closers, func() {
		sqlDB.Close() //nolint:errcheck
	})

	pipeline, err := ingest.NewService(ingest.ServiceConfig{
		Database:         db,
		Scorer:           person.Scorer{DigitPoints: cfg.DigitPoints},
		CellFromOwnValue: !cfg.CellFromPhone,
		Logger:           logger,
	})
	if err != nil {
		application.close()
		return nil, err
	}

	dropExisting := viper.GetBool("ingest.load_data")
	summary, err := pipeline.Run(ctx, cfg.SourcePath, dropExisting)
	if err != nil {
		application.close()
		return nil, err
	}
	application.summary = summary

	reports, err := report.NewService(report.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		application.close()
		return nil, err
	}
	application.reports = reports

	return application, nil
}

// runReport wraps the setup-query-teardown flow shared by every report
// subcommand.
func runReport(cmd *cobra.Command, query func(ctx context.Context, application *app) error) error {
	application, err := setupApp(cmd.Context())
	if err != nil {
		return err
	}
	defer application.close()

	err = query(cmd.Context(), application)
	if errors.Is(err, report.ErrNoData) {
		fmt.Println("No data in database.")
		return nil
	}
	return err
}

func newLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Ingest the source file without running a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setupApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.close()
			fmt.Printf("Inserted: %d, Skipped: %d, Rejected: %d\n",
				application.summary.Inserted, application.summary.Skipped, application.summary.Rejected)
			return nil
		},
	}
}

func newGenderPercentageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gender-percentage",
		Short: "Percentage of female and male persons in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, func(ctx context.Context, application *app) error {
				split, err := application.reports.GenderPercentage(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Female percentage: %v, Male percentage: %v\n", split.FemalePct, split.MalePct)
				return nil
			})
		},
	}
}

func newAverageAgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "average-age [female|male|all]",
		Short: "Average age of persons, optionally restricted to one gender",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := report.GenderAll
			if len(args) == 1 {
				filter = report.GenderFilter(args[0])
				if filter != report.GenderFemale && filter != report.GenderMale && filter != report.GenderAll {
					return fmt.Errorf("gender must be female, male or all, got %q", args[0])
				}
			}
			return runReport(cmd, func(ctx context.Context, application *app) error {
				average, err := application.reports.AverageAge(ctx, filter)
				if err != nil {
					return err
				}
				fmt.Printf("%v\n", average)
				return nil
			})
		},
	}
}

func newMostCommonCitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "most-common-cities <count>",
		Short: "Most common cities in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := parseLimit(args[0])
			if err != nil {
				return err
			}
			return runReport(cmd, func(ctx context.Context, application *app) error {
				results, err := application.reports.MostCommonCities(ctx, limit)
				if err != nil {
					return err
				}
				printValueCounts(results)
				return nil
			})
		},
	}
}

func newMostCommonPasswordsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "most-common-passwords <count>",
		Short: "Most common passwords in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := parseLimit(args[0])
			if err != nil {
				return err
			}
			return runReport(cmd, func(ctx context.Context, application *app) error {
				results, err := application.reports.MostCommonPasswords(ctx, limit)
				if err != nil {
					return err
				}
				printValueCounts(results)
				return nil
			})
		},
	}
}

func newDateRangeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "date-range <start> <end>",
		Short: "Usernames of persons born strictly between two dates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseCLIDate(args[0])
			if err != nil {
				return err
			}
			end, err := parseCLIDate(args[1])
			if err != nil {
				return err
			}
			return runReport(cmd, func(ctx context.Context, application *app) error {
				usernames, err := application.reports.BornBetween(ctx, start, end)
				if err != nil {
					return err
				}
				fmt.Printf("%s - %s\n", start.Format(cliDateLayout), end.Format(cliDateLayout))
				for _, username := range usernames {
					fmt.Println(username)
				}
				return nil
			})
		},
	}
}

func newSafestPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "safest-password",
		Short: "Stored password with the highest strength score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, func(ctx context.Context, application *app) error {
				strength, err := application.reports.SafestPassword(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Password: %q, Points: %d\n", strength.Password, strength.Score)
				return nil
			})
		},
	}
}

func newPrintAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print-all",
		Short: "Full denormalized dump of every person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, func(ctx context.Context, application *app) error {
				persons, err := application.reports.ListAll(ctx)
				if err != nil {
					return err
				}
				for _, entity := range persons {
					printPerson(entity)
				}
				return nil
			})
		},
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the reports over a read-only HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := setupApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.close()
			return runServer(cmd.Context(), application)
		},
	}
}

func runServer(ctx context.Context, application *app) error {
	handler, err := server.NewHTTPHandler(server.Dependencies{
		Reports: application.reports,
		Logger:  application.logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    application.cfg.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		application.logger.Info("report server starting", zap.String("address", application.cfg.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func parseLimit(raw string) (int, error) {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("count must be a positive integer, got %q", raw)
	}
	return limit, nil
}

func parseCLIDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(cliDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("dates must be formatted YYYY-MM-DD, got %q", raw)
	}
	return parsed, nil
}

func printValueCounts(results []report.ValueCount) {
	for _, result := range results {
		fmt.Printf("%s %d\n", result.Value, result.Count)
	}
}

func printPerson(entity person.Person) {
	fmt.Printf("Title: %s, First name: %s, Last name: %s\n", entity.Title, entity.FirstName, entity.LastName)
	fmt.Printf("Street number: %d, Street name: %s\n", entity.Location.StreetNumber, entity.Location.StreetName)
	fmt.Printf("City: %s, State: %s, Country: %s, Postcode: %d\n",
		entity.Location.City, entity.Location.State, entity.Location.Country, entity.Location.Postcode)
	fmt.Printf("Latitude: %v, Longitude: %v\n", entity.Location.Latitude, entity.Location.Longitude)
	fmt.Printf("Timezone offset: %s, Timezone description: %s\n",
		entity.Location.TimezoneOffset, entity.Location.TimezoneDescription)
	fmt.Printf("Date of birth: %s, Age: %d\n", entity.DateOfBirth.Format(time.RFC3339), entity.Age)
	fmt.Printf("Register date: %s, Register age: %d\n", entity.RegisterDate.Format(time.RFC3339), entity.RegisterAge)
	fmt.Printf("Email: %s\n", entity.Email)
	fmt.Printf("uuid: %s, username: %s, password: %s\n", entity.Login.UUID, entity.Login.Username, entity.Login.Password)
	fmt.Printf("salt: %s, md5: %s, sha1: %s\n", entity.Login.Salt, entity.Login.MD5, entity.Login.SHA1)
	fmt.Printf("sha256: %s, Password safety: %d\n", entity.Login.SHA256, entity.Login.PasswordSafety)
	fmt.Printf("Phone: %s, Cell: %s\n", entity.Phone, entity.Cell)
	idValue := "None"
	if entity.IDValue != nil {
		idValue = *entity.IDValue
	}
	fmt.Printf("Id name: %s, Id value: %s\n", entity.IDName, idValue)
	fmt.Printf("nat: %s, Day to birthday: %d\n\n", entity.Nationality, entity.DayToBirthday)
}
