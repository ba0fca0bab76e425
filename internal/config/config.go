package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"leakduck-backend/internal/scrapers/leekduck"
	"leakduck-backend/lib/configutil"
)

const (
	DetailFetcherHTTP    = "http"
	DetailFetcherBrowser = "browser"
)

// Source is the repository the published collections are read from.
type Source struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Ref   string `json:"ref"`
}

type ScraperSettings struct {
	Retries              int     `json:"retries"`
	RetryDelaySeconds    float64 `json:"retry_delay_seconds"`
	TimeoutSeconds       float64 `json:"timeout_seconds"`
	CacheExpirationHours float64 `json:"cache_expiration_hours"`
	// Workers bounds how many entities are scraped at the same time.
	Workers           int     `json:"workers"`
	UserAgent         string  `json:"user_agent"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

func (s ScraperSettings) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelaySeconds * float64(time.Second))
}

func (s ScraperSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds * float64(time.Second))
}

func (s ScraperSettings) CacheExpiration() time.Duration {
	return time.Duration(s.CacheExpirationHours * float64(time.Hour))
}

type Scraper struct {
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

type Events struct {
	Scraper
	// CheckExisting skips the detail page of events that are already published.
	CheckExisting bool   `json:"check_existing"`
	DetailFetcher string `json:"detail_fetcher"`
	DetailWorkers int    `json:"detail_workers"`
	WaitSelector  string `json:"wait_selector"`
	BaseURL       string `json:"base_url"`
	ChromePath    string `json:"chrome_path"`
}

type Scrapers struct {
	Events        Events  `json:"events"`
	Eggs          Scraper `json:"eggs"`
	RaidBosses    Scraper `json:"raid_bosses"`
	Research      Scraper `json:"research"`
	RocketLineups Scraper `json:"rocket_lineups"`
}

type Output struct {
	Dir   string `json:"dir"`
	CIDir string `json:"ci_dir"`
	// CIEnv is the environment variable that, when set, means the run happens in CI.
	CIEnv   string `json:"ci_env"`
	HTMLDir string `json:"html_dir"`
}

func (o Output) inCI(getenv func(string) string) bool {
	return o.CIEnv != "" && getenv(o.CIEnv) != ""
}

// ResolveDir is the directory collections are written to.
func (o Output) ResolveDir(getenv func(string) string) string {
	if o.inCI(getenv) {
		return o.CIDir
	}
	return o.Dir
}

// ResolveHTMLDir is the directory raw listing pages are dumped to, empty in CI.
func (o Output) ResolveHTMLDir(getenv func(string) string) string {
	if o.inCI(getenv) {
		return ""
	}
	return o.HTMLDir
}

type Cache struct {
	Dir string `json:"dir"`
}

type Schedule struct {
	Cron string `json:"cron"`
}

type Config struct {
	Source          Source          `json:"source"`
	ScraperSettings ScraperSettings `json:"scraper_settings"`
	Scrapers        Scrapers        `json:"scrapers"`
	Output          Output          `json:"output"`
	Cache           Cache           `json:"cache"`
	Schedule        Schedule        `json:"schedule"`
}

// Defaults fills everything a config file may leave out, no entity is enabled by default.
func Defaults() Config {
	return Config{
		Source: Source{
			Owner: "zhenga8533",
			Repo:  "leak-duck",
			Ref:   "data",
		},
		ScraperSettings: ScraperSettings{
			Retries:              3,
			RetryDelaySeconds:    5,
			TimeoutSeconds:       15,
			CacheExpirationHours: 24,
			Workers:              5,
			RequestsPerSecond:    2,
		},
		Scrapers: Scrapers{
			Events: Events{
				Scraper: Scraper{
					URL:      "https://leekduck.com/events/",
					FileName: "events",
				},
				DetailFetcher: DetailFetcherHTTP,
				DetailWorkers: 4,
				BaseURL:       leekduck.DefaultBaseURL,
			},
			Eggs: Scraper{
				URL:      "https://leekduck.com/eggs/",
				FileName: "egg_pool",
			},
			RaidBosses: Scraper{
				URL:      "https://leekduck.com/boss/",
				FileName: "raid_bosses",
			},
			Research: Scraper{
				URL:      "https://leekduck.com/research/",
				FileName: "research",
			},
			RocketLineups: Scraper{
				URL:      "https://leekduck.com/rocket-lineups/",
				FileName: "rocket_lineups",
			},
		},
		Output: Output{
			Dir:     "json",
			CIDir:   ".",
			CIEnv:   "CI",
			HTMLDir: "html",
		},
		Cache: Cache{
			Dir: ".cache/pages",
		},
		Schedule: Schedule{
			Cron: "0 */6 * * *",
		},
	}
}

// Load reads the config file at path (merged with its .local override) and fills in defaults.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err = configutil.WithDefaults(cfg, Defaults())
	if err != nil {
		return Config{}, fmt.Errorf("apply defaults: %w", err)
	}
	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Scraper returns the settings of an entity.
func (c Config) Scraper(entity string) (Scraper, bool) {
	switch entity {
	case leekduck.EntityEvents:
		return c.Scrapers.Events.Scraper, true
	case leekduck.EntityEggs:
		return c.Scrapers.Eggs, true
	case leekduck.EntityRaidBosses:
		return c.Scrapers.RaidBosses, true
	case leekduck.EntityResearch:
		return c.Scrapers.Research, true
	case leekduck.EntityRocketLineups:
		return c.Scrapers.RocketLineups, true
	}
	return Scraper{}, false
}

// Enabled returns the enabled entities in report order. When only is not empty, it must name
// known entities and the result is restricted to them.
func (c Config) Enabled(only []string) ([]string, error) {
	for _, entity := range only {
		if _, ok := c.Scraper(entity); !ok {
			return nil, fmt.Errorf("unknown entity %q, expected one of %s", entity, strings.Join(leekduck.Entities, ", "))
		}
	}

	var enabled []string
	for _, entity := range leekduck.Entities {
		scraper, _ := c.Scraper(entity)
		if !scraper.Enabled {
			continue
		}
		if len(only) > 0 && !slices.Contains(only, entity) {
			continue
		}
		enabled = append(enabled, entity)
	}
	return enabled, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.ScraperSettings.Retries < 1 {
		errs = append(errs, fmt.Errorf("scraper_settings.retries must be at least 1, got %d", c.ScraperSettings.Retries))
	}
	if c.ScraperSettings.Workers < 1 {
		errs = append(errs, fmt.Errorf("scraper_settings.workers must be at least 1, got %d", c.ScraperSettings.Workers))
	}
	switch c.Scrapers.Events.DetailFetcher {
	case DetailFetcherHTTP, DetailFetcherBrowser:
	default:
		errs = append(errs, fmt.Errorf(
			"scrapers.events.detail_fetcher must be %q or %q, got %q",
			DetailFetcherHTTP, DetailFetcherBrowser, c.Scrapers.Events.DetailFetcher,
		))
	}

	anyEnabled := false
	for _, entity := range leekduck.Entities {
		scraper, _ := c.Scraper(entity)
		if !scraper.Enabled {
			continue
		}
		anyEnabled = true
		if scraper.URL == "" {
			errs = append(errs, fmt.Errorf("scrapers.%s.url is empty", entity))
		}
		if scraper.FileName == "" {
			errs = append(errs, fmt.Errorf("scrapers.%s.file_name is empty", entity))
		}
	}
	if !anyEnabled {
		errs = append(errs, errors.New("no scraper is enabled"))
	}
	if c.Scrapers.Events.Enabled && c.Source.Owner != "" && c.Source.Repo == "" {
		errs = append(errs, errors.New("source.repo is empty"))
	}

	return errors.Join(errs...)
}
