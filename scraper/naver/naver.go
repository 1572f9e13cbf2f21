// Package naver turns Naver's relative DataLab trends into absolute daily
// query counts per device, using the search ad keyword tool's monthly
// volumes as the scale.
package naver

import (
	"context"
	"math"
	"time"

	"github.com/valyala/fasthttp"

	"naver-trends/config"
	"naver-trends/models"
	"naver-trends/utils"
)

const (
	dateLayout = "2006-01-02"

	// scaleWindowDays is the span the keyword tool's monthly volume covers.
	scaleWindowDays = 30
)

// Scraper fetches per-device daily series for keyword batches.
type Scraper struct {
	cfg      *config.Config
	logger   *utils.Logger
	searchAd *SearchAdClient
	dataLab  *DataLabClient
	now      func() time.Time
}

// New creates a ready-to-use Naver Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return newScraper(cfg, logger, &fasthttp.Client{
		ReadTimeout:         cfg.HTTPTimeout,
		WriteTimeout:        cfg.HTTPTimeout,
		MaxIdleConnDuration: 90 * time.Second,
	})
}

func newScraper(cfg *config.Config, logger *utils.Logger, hc *fasthttp.Client) *Scraper {
	api := &apiClient{
		client:  hc,
		timeout: cfg.HTTPTimeout,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.HTTPMaxRetries + 1,
			BaseDelay:   time.Second,
			Multiplier:  2,
			Retryable:   retryable,
			Logger:      logger,
		},
		throttle: utils.NewThrottle(cfg.RateLimitMs),
	}

	return &Scraper{
		cfg:    cfg,
		logger: logger,
		searchAd: &SearchAdClient{
			api:        api,
			baseURL:    cfg.SearchAdBaseURL,
			customerID: cfg.SearchAdCustomerID,
			apiKey:     cfg.SearchAdAPIKey,
			secret:     cfg.SearchAdSecret,
			now:        time.Now,
		},
		dataLab: &DataLabClient{
			api:          api,
			baseURL:      cfg.DataLabBaseURL,
			clientID:     cfg.NaverClientID,
			clientSecret: cfg.NaverClientSecret,
		},
		now: time.Now,
	}
}

// Analyze returns a trend for every keyword passed in. Each series only
// holds dates strictly after the keyword's entry in latest, or after the
// configured default latest date when there is none. Empty and unknown
// keywords get empty series.
func (s *Scraper) Analyze(ctx context.Context, keywords []string, latest models.LatestDates) (map[string]*models.KeywordTrend, error) {
	results := make(map[string]*models.KeywordTrend, len(keywords))
	var queryable []string
	for _, kw := range keywords {
		if _, seen := results[kw]; seen {
			continue
		}
		results[kw] = &models.KeywordTrend{}
		if kw == "" {
			s.logger.Warn("[naver] Skipping empty keyword")
			continue
		}
		queryable = append(queryable, kw)
	}

	for i := 0; i < len(queryable); i += maxKeywordGroups {
		end := i + maxKeywordGroups
		if end > len(queryable) {
			end = len(queryable)
		}
		if err := s.analyzeChunk(ctx, queryable[i:end], latest, results); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *Scraper) analyzeChunk(ctx context.Context, chunk []string, latest models.LatestDates, results map[string]*models.KeywordTrend) error {
	to := s.endDate()

	windows := make(map[models.DeviceType]time.Time, len(models.Devices))
	for _, device := range models.Devices {
		start := s.startDate(chunk, device, latest)
		if start.After(to) {
			s.logger.Debug("[naver] %v already up to date for %s", chunk, device)
			continue
		}
		windows[device] = s.requestStart(start, to)
	}
	if len(windows) == 0 {
		return nil
	}

	volumes, err := s.searchAd.MonthlyVolumes(ctx, chunk)
	if err != nil {
		return err
	}

	for _, device := range models.Devices {
		from, ok := windows[device]
		if !ok {
			continue
		}

		s.logger.Debug("[naver] Fetching %s ratios %s..%s for %v",
			device, from.Format(dateLayout), to.Format(dateLayout), chunk)
		ratios, err := s.dataLab.Ratios(ctx, chunk, device, from, to)
		if err != nil {
			return err
		}

		for _, kw := range chunk {
			vol, known := volumes[kw]
			points, found := ratios[kw]
			if !known || !found {
				s.logger.Warn("[naver] No %s data for keyword %q", device, kw)
				continue
			}

			series := scale(points, vol.For(device), to).After(s.latestFor(latest, device, kw))
			if device == models.DeviceMobile {
				results[kw].Mobile = series
			} else {
				results[kw].Desktop = series
			}
		}
	}
	return nil
}

// endDate is the last day whose data is considered complete.
func (s *Scraper) endDate() time.Time {
	return truncateDay(s.now().Add(-s.cfg.DataLag))
}

// latestFor returns the stored date for the pair, or the default latest date.
func (s *Scraper) latestFor(latest models.LatestDates, device models.DeviceType, kw string) string {
	if d := latest.Get(device, kw); d != "" {
		return d
	}
	return s.cfg.DefaultLatestDate.Format(dateLayout)
}

// startDate is the day after the oldest latest date across the chunk.
func (s *Scraper) startDate(chunk []string, device models.DeviceType, latest models.LatestDates) time.Time {
	var start time.Time
	for _, kw := range chunk {
		last := truncateDay(s.cfg.DefaultLatestDate)
		if d := latest.Get(device, kw); d != "" {
			parsed, err := time.ParseInLocation(dateLayout, d, time.Local)
			if err != nil {
				s.logger.Warn("[naver] Unparseable latest date %q for %q, using default", d, kw)
			} else {
				last = parsed
			}
		}
		next := last.AddDate(0, 0, 1)
		if start.IsZero() || next.Before(start) {
			start = next
		}
	}
	return start
}

// requestStart widens the window so it always covers the scale window,
// without reaching before the default start date.
func (s *Scraper) requestStart(start, to time.Time) time.Time {
	from := start
	if scaleFrom := to.AddDate(0, 0, -(scaleWindowDays - 1)); scaleFrom.Before(from) {
		from = scaleFrom
	}
	if floor := truncateDay(s.cfg.DefaultLatestDate).AddDate(0, 0, 1); from.Before(floor) {
		from = floor
	}
	return from
}

// scale converts relative ratios to absolute daily counts so that the last
// scaleWindowDays days sum to the monthly volume.
func scale(points []ratioPoint, monthly int64, to time.Time) models.Series {
	windowStart := to.AddDate(0, 0, -(scaleWindowDays - 1)).Format(dateLayout)

	var sum float64
	for _, p := range points {
		if p.Date >= windowStart {
			sum += p.Ratio
		}
	}

	var factor float64
	if sum > 0 {
		factor = float64(monthly) / sum
	}

	series := make(models.Series, 0, len(points))
	for _, p := range points {
		series = append(series, models.DailyCount{
			Date:  p.Date,
			Count: int64(math.Round(p.Ratio * factor)),
		})
	}
	series.Sort()
	return series
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
