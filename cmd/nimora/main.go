package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimora/nimora/internal/config"
	"github.com/nimora/nimora/internal/leave"
	"github.com/nimora/nimora/internal/logging"
	"github.com/nimora/nimora/internal/portal"
	"github.com/nimora/nimora/pkg/constants"
	"github.com/nimora/nimora/pkg/output"
	"github.com/nimora/nimora/pkg/validation"
	"go.uber.org/zap"
)

// options are the resolved command-line choices. targetSet marks an explicit
// -target so that a zero override is validated instead of defaulted.
type options struct {
	outputFormat string
	target       float64
	targetSet    bool
	recordsPath  string
}

var errMissingCredentials = errors.New("student credentials are required: set NIMORA_ROLLNO and NIMORA_PASSWORD or student.rollNo and student.password")

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the configuration")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	targetFlag := flag.Float64("target", 0, "target attendance percentage override")
	recordsFlag := flag.String("records", "", "YAML file of attendance records to use instead of the portal service")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file %s\", \"error\": \"%v\"}\n", *envFile, err)
		os.Exit(1)
	}

	// A missing default config file means environment-only configuration.
	configPath := *configLocation
	if _, statErr := os.Stat(configPath); errors.Is(statErr, fs.ErrNotExist) && configPath == constants.DefaultConfigFile {
		configPath = ""
	}

	conf, err := config.LoadConfiguration(configPath)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI overrides take precedence over config
	opts := options{
		outputFormat: conf.Output.Format,
		target:       conf.Attendance.TargetPercentage,
		recordsPath:  *recordsFlag,
	}
	if *outputFormatFlag != "" {
		opts.outputFormat = *outputFormatFlag
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "target" {
			opts.target = *targetFlag
			opts.targetSet = true
		}
	})

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, conf, opts, os.Stdout); err != nil {
		logger.Error("failed to build leave report",
			zap.String("op", "main"),
			zap.Error(err),
		)
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run loads attendance records, estimates affordable leaves and writes the
// report to w.
func run(ctx context.Context, logger *zap.Logger, conf *config.Configuration, opts options, w io.Writer) error {
	if opts.outputFormat == "" {
		opts.outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(opts.outputFormat); err != nil {
		return err
	}
	if opts.target == 0 && !opts.targetSet {
		opts.target = constants.DefaultTargetPercentage
	}
	if err := validation.ValidateTargetRange(opts.target, conf.Attendance.MinTarget, conf.Attendance.MaxTarget); err != nil {
		return err
	}

	records, err := loadRecords(ctx, logger, conf, opts.recordsPath)
	if err != nil {
		return err
	}

	results, err := leave.BuildTable(logger, records, opts.target)
	if err != nil {
		return fmt.Errorf("failed to compute leave table: %w", err)
	}

	switch opts.outputFormat {
	case constants.OutputFormatCSV:
		return output.CsvFormat(w, records, results)
	default:
		output.PrettyFormat(w, opts.target, records, results)
	}
	return nil
}

// loadRecords prefers a records file, then records from the configuration,
// then the portal service.
func loadRecords(ctx context.Context, logger *zap.Logger, conf *config.Configuration, recordsPath string) ([]leave.Record, error) {
	if recordsPath != "" {
		return config.LoadRecords(recordsPath)
	}
	if len(conf.Records) > 0 {
		return conf.Records, nil
	}

	creds := portal.Credentials{RollNo: conf.Student.RollNo, Password: conf.Student.Password}
	if creds.RollNo == "" || creds.Password == "" {
		return nil, errMissingCredentials
	}

	client, err := portal.NewClient(logger, conf.Backend)
	if err != nil {
		return nil, err
	}
	entries, err := client.Attendance(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendance: %w", err)
	}

	logger.Info("fetched attendance",
		zap.String("op", "main.loadRecords"),
		zap.Int("courses", len(entries)),
	)
	return portal.Records(entries), nil
}
