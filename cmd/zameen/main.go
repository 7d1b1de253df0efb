package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Anayat-ullah1/zameen-scraper/internal/config"
	"github.com/Anayat-ullah1/zameen-scraper/internal/fetcher"
	"github.com/Anayat-ullah1/zameen-scraper/internal/output"
	"github.com/Anayat-ullah1/zameen-scraper/internal/scraper"
	"github.com/Anayat-ullah1/zameen-scraper/pkg/scrape"
)

var version = "0.1.0"

// flags holds all parsed CLI options. Numeric fields start at -1 so an
// untouched flag never clobbers a config file or environment value.
type flags struct {
	// Target
	searchURL string

	// Walk
	maxPages   int
	maxDetails int
	delay      time.Duration
	jitter     time.Duration

	// Request
	userAgent string
	timeout   int

	// Output
	out     string
	db      string
	silent  bool
	verbose bool
	noColor bool

	// Config file
	configFile string

	// Meta
	showHelp    bool
	showVersion bool
}

func main() {
	f := parseFlags()

	if f.showVersion {
		fmt.Printf("zameen-scraper v%s\n", version)
		os.Exit(0)
	}
	if f.showHelp {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load(f.configFile)
	if err != nil {
		usageError("%v", err)
	}
	applyFlags(f, cfg)

	// The search URL may come from a flag, the config file, or the
	// environment; only its total absence is an error.
	if cfg.SearchURL == "" {
		printUsage()
		os.Exit(1)
	}
	if !strings.HasPrefix(cfg.SearchURL, "http://") && !strings.HasPrefix(cfg.SearchURL, "https://") {
		cfg.SearchURL = "https://" + cfg.SearchURL
	}

	noColor = f.noColor
	enableANSI()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	httpFetcher := fetcher.NewHTTPFetcher(fetcher.Config{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Timeout:        cfg.Timeout,
	})
	defer httpFetcher.Close()

	var writers []scrape.ListingWriter

	csvWriter, err := output.NewCSVWriter(cfg.OutputPath)
	if err != nil {
		fatal("%v", err)
	}
	writers = append(writers, csvWriter)

	if cfg.DBPath != "" {
		dbWriter, err := output.NewSQLiteWriter(cfg.DBPath)
		if err != nil {
			fatal("%v", err)
		}
		writers = append(writers, dbWriter)
	}
	defer func() {
		for _, w := range writers {
			if err := w.Close(); err != nil {
				log.WithError(err).WithField("writer", w.Name()).Warn("close failed")
			}
		}
	}()

	s := scraper.New(&scraper.Config{
		SearchURL:  cfg.SearchURL,
		MaxPages:   cfg.MaxPages,
		MaxDetails: cfg.MaxDetails,
		Delay:      cfg.Delay,
		Jitter:     cfg.Jitter,
	}, httpFetcher, writers, log)

	// Handle Ctrl+C
	sig := make(chan os.Signal, 1)
	registerSignals(sig)
	go func() {
		<-sig
		fmt.Fprintf(os.Stderr, "\n\n%s Interrupt received, stopping...\n", clr("yellow", "!"))
		s.Stop()
	}()

	run(s, cfg)
}

func run(s *scraper.Scraper, cfg *config.Config) {
	if !cfg.Silent {
		printBanner()
		details := fmt.Sprintf("%d", cfg.MaxDetails)
		if cfg.MaxDetails <= 0 {
			details = "all"
		}
		fmt.Printf("\n  %s %s\n", clr("cyan", "Target:"), cfg.SearchURL)
		fmt.Printf("  %s %d  %s %s  %s %s\n\n",
			clr("dim", "Pages:"), cfg.MaxPages,
			clr("dim", "Details:"), details,
			clr("dim", "Delay:"), fmtDur(cfg.Delay),
		)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range s.Events() {
			if cfg.Silent {
				continue
			}
			handleEvent(event, cfg)
		}
	}()

	listings, err := s.Run()
	<-done

	if err != nil {
		if len(listings) > 0 {
			fmt.Fprintf(os.Stderr, "\n  %s %d listings were saved before the failure\n",
				clr("yellow", "!"), len(listings))
		}
		fatal("scrape error: %v", err)
	}

	if !cfg.Silent {
		time.Sleep(50 * time.Millisecond)
	}
}

func handleEvent(event scrape.Event, cfg *config.Config) {
	switch event.Type {
	case scrape.EventCrawlStarted:
		// run() already printed the target line

	case scrape.EventPageStarted:
		fmt.Printf("  %s [page %d] GET %s\n", clr("cyan", "→"), event.Page, event.URL)

	case scrape.EventPageDone:
		fmt.Printf("  %s [page %d] %s\n", clr("green", "●"), event.Page, event.Message)

	case scrape.EventDetailStarted:
		fmt.Printf("  %s [detail %d/%d] %s\n", clr("cyan", "→"), event.Index, event.Total, event.URL)

	case scrape.EventDetailDone:
		if event.Listing == nil {
			return
		}
		l := event.Listing
		title := l.Title
		if title == "" {
			title = "(untitled)"
		}
		line := title
		if l.Price != "" {
			line += "  " + l.Price
		}
		fmt.Printf("      %s\n", clr("dim", "└─ "+line))

	case scrape.EventDetailError:
		fmt.Printf("  %s %s\n", clr("red", "✗"), event.Message)

	case scrape.EventCrawlFinished:
		if event.Stats == nil {
			return
		}
		st := event.Stats
		fmt.Println()
		fmt.Printf("  %s\n", strings.Repeat("─", 50))
		fmt.Printf("  %s Scrape complete\n", clr("green", "✓"))
		fmt.Printf("    Pages:    %s walked, %s detail links found\n",
			clr("cyan", fmt.Sprintf("%d", st.PagesFetched)),
			clr("cyan", fmt.Sprintf("%d", st.LinksFound)),
		)
		fmt.Printf("    Details:  %s fetched, %s errors\n",
			clr("cyan", fmt.Sprintf("%d", st.DetailsFetched)),
			clr("red", fmt.Sprintf("%d", st.DetailsErrored)),
		)
		fmt.Printf("    Listings: %s saved in %s\n",
			clr("yellow", fmt.Sprintf("%d", st.ListingsExtracted)),
			fmtDur(st.Elapsed),
		)
		fmt.Printf("    Output:   %s\n", clr("green", cfg.OutputPath))
		if cfg.DBPath != "" {
			fmt.Printf("    Database: %s\n", clr("green", cfg.DBPath))
		}
		fmt.Println()
	}
}

// ---------- Flag parsing ----------

func parseFlags() *flags {
	f := &flags{
		maxPages:   -1,
		maxDetails: -1,
		delay:      -1,
		jitter:     -1,
		timeout:    -1,
	}

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() string {
			if i+1 < len(args) {
				i++
				return args[i]
			}
			usageError("flag %s requires an argument", arg)
			return ""
		}
		nextInt := func() int {
			v := next()
			var n int
			fmt.Sscanf(v, "%d", &n)
			return n
		}
		nextDur := func() time.Duration {
			v := next()
			d, err := time.ParseDuration(v)
			if err != nil {
				usageError("flag %s: invalid duration %q", arg, v)
			}
			return d
		}

		switch arg {
		// Target
		case "-u", "--search-url":
			f.searchURL = next()

		// Walk
		case "-mp", "--max-pages":
			f.maxPages = nextInt()
		case "-md", "--max-details":
			f.maxDetails = nextInt()
		case "-dl", "--delay":
			f.delay = nextDur()
		case "-j", "--jitter":
			f.jitter = nextDur()

		// Request
		case "-ua", "--user-agent":
			f.userAgent = next()
		case "-t", "--timeout":
			f.timeout = nextInt()

		// Output
		case "-o", "--out":
			f.out = next()
		case "--db":
			f.db = next()
		case "-si", "--silent":
			f.silent = true
		case "-v", "--verbose":
			f.verbose = true
		case "-nc", "--no-color":
			f.noColor = true

		// Config file
		case "-c", "--config":
			f.configFile = next()

		// Meta
		case "-h", "--help":
			f.showHelp = true
		case "-V", "--version":
			f.showVersion = true

		default:
			// Treat bare arg as the search URL if none was given yet
			if !strings.HasPrefix(arg, "-") && f.searchURL == "" {
				f.searchURL = arg
			} else {
				fmt.Fprintf(os.Stderr, "Unknown flag: %s (use --help for usage)\n", arg)
				os.Exit(1)
			}
		}
	}
	return f
}

// applyFlags lays explicitly set flags over the loaded configuration.
func applyFlags(f *flags, cfg *config.Config) {
	if f.searchURL != "" {
		cfg.SearchURL = f.searchURL
	}
	if f.maxPages >= 0 {
		cfg.MaxPages = f.maxPages
	}
	if f.maxDetails >= 0 {
		cfg.MaxDetails = f.maxDetails
	}
	if f.delay >= 0 {
		cfg.Delay = f.delay
	}
	if f.jitter >= 0 {
		cfg.Jitter = f.jitter
	}
	if f.userAgent != "" {
		cfg.UserAgent = f.userAgent
	}
	if f.timeout > 0 {
		cfg.Timeout = time.Duration(f.timeout) * time.Second
	}
	if f.out != "" {
		cfg.OutputPath = f.out
	}
	if f.db != "" {
		cfg.DBPath = f.db
	}
	if f.verbose {
		cfg.Verbose = true
	}
	if f.silent {
		cfg.Silent = true
	}
}

// ---------- Help / banner ----------

func printUsage() {
	printBanner()
	fmt.Print(`
USAGE:
  zameen [flags] <search-url>
  zameen -u https://www.zameen.com/Homes/Lahore-1-1.html
  zameen -u https://www.zameen.com/Homes/Karachi-2-1.html -mp 3 -md 50 -o karachi.csv

TARGET:
  -u,    --search-url <string>       Zameen search results URL to start from

WALK:
  -mp,   --max-pages <int>           result pages to walk (default 1)
  -md,   --max-details <int>         detail pages to scrape, 0 for all found (default 10)
  -dl,   --delay <duration>          base pause between requests (default 1500ms)
  -j,    --jitter <duration>         random spread added to the pause (default 500ms)

REQUEST:
  -ua,   --user-agent <string>       custom user-agent string
  -t,    --timeout <int>             request timeout in seconds (default 20)

OUTPUT:
  -o,    --out <string>              CSV output path (default "zameen_listings.csv")
         --db <string>               also store listings in a SQLite database at this path
  -si,   --silent                    suppress progress output
  -v,    --verbose                   enable debug logging
  -nc,   --no-color                  disable colored output

CONFIG:
  -c,    --config <string>           path to YAML configuration file
                                     (environment variables override it, flags override both)

META:
  -h,    --help                      show this help message
  -V,    --version                   show version

`)
}

func printBanner() {
	logo := `
  ███████╗ █████╗ ███╗   ███╗███████╗███████╗███╗   ██╗
  ╚══███╔╝██╔══██╗████╗ ████║██╔════╝██╔════╝████╗  ██║
    ███╔╝ ███████║██╔████╔██║█████╗  █████╗  ██╔██╗ ██║
   ███╔╝  ██╔══██║██║╚██╔╝██║██╔══╝  ██╔══╝  ██║╚██╗██║
  ███████╗██║  ██║██║ ╚═╝ ██║███████╗███████╗██║ ╚████║
  ╚══════╝╚═╝  ╚═╝╚═╝     ╚═╝╚══════╝╚══════╝╚═╝  ╚═══╝`
	fmt.Println(clr("cyan", logo))
	fmt.Printf("  %s  %s\n", clr("dim", "Zameen.com property listing scraper"), clr("dim", "v"+version))
	fmt.Printf("  %s\n", clr("dim", strings.Repeat("─", 55)))
}

// ---------- Utilities ----------

func fmtDur(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}

var noColor bool

func clr(color, text string) string {
	if noColor {
		return text
	}
	codes := map[string]string{
		"red":    "\033[31m",
		"green":  "\033[32m",
		"yellow": "\033[33m",
		"cyan":   "\033[36m",
		"dim":    "\033[2m",
		"bold":   "\033[1m",
		"reset":  "\033[0m",
	}
	c, ok := codes[color]
	if !ok {
		return text
	}
	return c + text + codes["reset"]
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\n  %s %s\n\n", clr("red", "ERROR:"), fmt.Sprintf(format, args...))
	os.Exit(2)
}

func usageError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\n  %s %s\n\n", clr("red", "ERROR:"), fmt.Sprintf(format, args...))
	os.Exit(1)
}
