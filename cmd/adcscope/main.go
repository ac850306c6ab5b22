package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/usnistgov/adcscope"
	"gopkg.in/natefinch/lumberjack.v2"
)

var githash = "githash not computed"
var gitdate = "git date not computed"
var buildDate = "build date not computed"

// makeFileExist returns the path dir/filename, creating an empty file (and
// any missing directories) when there is none. An existing file is untouched.
func makeFileExist(dir, filename string) (string, error) {
	// Only the first "$HOME" is expanded.
	if strings.Contains(dir, "$HOME") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = strings.Replace(dir, "$HOME", home, 1)
	}

	if err := os.MkdirAll(dir, 0775); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	fullname := path.Join(dir, filename)
	if _, err := os.Stat(fullname); errors.Is(err, fs.ErrNotExist) {
		f, err := os.OpenFile(fullname, os.O_WRONLY|os.O_CREATE, 0664)
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", fullname, err)
		}
		f.Close()
	}
	return fullname, nil
}

// setupViper says where to find config files, sets defaults, binds the
// command-line flags, and reads the config file.
func setupViper(flags *pflag.FlagSet) error {
	adcscope.SetViperDefaults(viper.GetViper())

	HOME, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("finding user home dir: %w", err)
	}
	dotDir := filepath.Join(HOME, ".adcscope")
	const filename string = "config"
	const suffix string = ".yaml"
	if _, err := makeFileExist(dotDir, filename+suffix); err != nil {
		return err
	}

	viper.SetConfigName(filename)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(filepath.FromSlash("/etc/adcscope"))
	viper.AddConfigPath(dotDir)
	viper.AddConfigPath(".")
	if err := viper.BindPFlags(flags); err != nil {
		return err
	}
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func startLogger(pfname string) *log.Logger {
	return log.New(&lumberjack.Logger{
		Filename:   pfname,
		MaxSize:    10,   // megabytes after which new file is created
		MaxBackups: 4,    // number of backups
		MaxAge:     180,  // days
		Compress:   true, // whether to gzip the backups
	}, "", log.LstdFlags)
}

// interruptChannel returns a channel that is closed on the first Ctrl-C.
func interruptChannel() <-chan struct{} {
	catcher := make(chan os.Signal, 1)
	signal.Notify(catcher, os.Interrupt)
	abort := make(chan struct{})
	go func() {
		<-catcher
		fmt.Println("Interrupted.")
		signal.Stop(catcher)
		close(abort)
	}()
	return abort
}

func main() {
	buildDate = strings.ReplaceAll(buildDate, ".", " ") // workaround for Make problems
	adcscope.Build.Date = buildDate
	adcscope.Build.Githash = githash
	adcscope.Build.Gitdate = gitdate
	adcscope.Build.Summary = fmt.Sprintf("adcscope version %s (git commit %s of %s)", adcscope.Build.Version, githash, gitdate)
	if host, err := os.Hostname(); err == nil {
		adcscope.Build.Host = host
	} else {
		adcscope.Build.Host = "host not detected"
	}

	flags := pflag.NewFlagSet("adcscope", pflag.ExitOnError)
	printVersion := flags.Bool("version", false, "print version and quit")
	flags.Bool("serve", false, "run the JSON-RPC capture server instead of one capture")
	flags.Bool("publish", false, "publish capture data to ZMQ subscribers")
	flags.Bool("verbose", false, "log the full configuration")
	flags.Int("capture.samplecount", adcscope.DefaultCaptureConfig.SampleCount, "number of samples to capture")
	flags.Float64("capture.samplinginterval", adcscope.DefaultCaptureConfig.SamplingInterval, "seconds between samples")
	flags.String("source.kind", adcscope.DefaultSourceConfig.Kind, "sample source: sine, triangle, constant, or ads1115")
	flags.Parse(os.Args[1:])

	if *printVersion {
		fmt.Printf("This is adcscope version %s\n", adcscope.Build.Version)
		fmt.Printf("Git commit hash: %s\n", githash)
		fmt.Printf("Build time: %s\n", buildDate)
		fmt.Printf("Built on go version %s\n", runtime.Version())
		os.Exit(0)
	}

	banner := fmt.Sprintf("\nThis is adcscope version %s (git commit %s)\n", adcscope.Build.Version, githash)
	fmt.Print(banner)

	// Start logging problems and updates to 2 log files.
	HOME, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	logdir := filepath.Join(HOME, ".adcscope", "logs")
	problemname, err := makeFileExist(logdir, "problems.log")
	if err != nil {
		panic(err)
	}
	logname, err := makeFileExist(logdir, "updates.log")
	if err != nil {
		panic(err)
	}
	adcscope.ProblemLogger = startLogger(problemname)
	adcscope.UpdateLogger = startLogger(logname)
	fmt.Printf("Logging problems       to %s\n", problemname)
	fmt.Printf("Logging client updates to %s\n\n", logname)
	adcscope.UpdateLogger.Printf("\n\n\n\n%s", banner)

	// Find config file, creating it if needed, and read it.
	if err := setupViper(flags); err != nil {
		panic(err)
	}

	updater := adcscope.NewClientUpdater()
	if viper.GetBool("serve") || viper.GetBool("publish") {
		abort := make(chan struct{})
		defer close(abort)
		go func() {
			if err := updater.Run(adcscope.Ports.Status, abort); err != nil {
				adcscope.ProblemLogger.Printf("client updater: %v\n", err)
			}
		}()
	}

	if viper.GetBool("serve") {
		fmt.Printf("Serving JSON-RPC on port %d, status on port %d\n", adcscope.Ports.RPC, adcscope.Ports.Status)
		if err := adcscope.RunRPCServer(adcscope.Ports.RPC, updater, viper.GetViper()); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := captureOnce(updater, viper.GetBool("publish")); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		adcscope.ProblemLogger.Println(err)
		os.Exit(1)
	}
}

// captureOnce runs a single capture from the configured source, printing a
// summary of the spectrum. Ctrl-C ends acquisition early; the samples taken
// so far are still analyzed.
func captureOnce(updater *adcscope.ClientUpdater, publish bool) error {
	capture, sourceConfig, err := adcscope.LoadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if viper.GetBool("verbose") {
		adcscope.UpdateLogger.Printf("capture config:\n%s", spew.Sdump(capture, sourceConfig))
	}

	source, closeSource, err := adcscope.NewSource(&sourceConfig, capture)
	if err != nil {
		return err
	}
	defer closeSource()

	renderer := adcscope.MultiRenderer{&adcscope.LogRenderer{}}
	if publish {
		renderer = append(renderer, adcscope.NewPublishRenderer(updater))
	}
	pipeline, err := adcscope.NewPipeline(capture, source, renderer)
	if err != nil {
		return err
	}

	fmt.Println("Collecting and plotting time-domain data...")
	result, err := pipeline.Run(interruptChannel())
	if errors.Is(err, adcscope.ErrEmptyCapture) {
		return fmt.Errorf("no samples were collected: %w", err)
	} else if err != nil {
		return fmt.Errorf("after %d samples: %w", result.Series.Len(), err)
	}

	fmt.Println("Frequency-domain analysis complete.")
	fmt.Printf("Run %s: %d samples, %d frequency bins from 0 to %.1f Hz\n",
		result.RunID, result.Series.Len(), len(result.Spectrum), capture.Nyquist())
	if peak, ok := result.Spectrum.Peak(); ok {
		fmt.Printf("Strongest component: %.4f V at %.2f Hz\n", peak.Amplitude, peak.Frequency)
	}
	return nil
}
