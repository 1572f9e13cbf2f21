package naver

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"naver-trends/models"
)

const keywordToolPath = "/keywordstool"

// lowVolumeEstimate stands in for the keyword tool's "< 10" answer.
const lowVolumeEstimate = 5

// MonthlyVolume is the absolute query count of the last 30 days per device.
type MonthlyVolume struct {
	PC     int64
	Mobile int64
}

// For returns the volume for device.
func (v MonthlyVolume) For(device models.DeviceType) int64 {
	if device == models.DeviceMobile {
		return v.Mobile
	}
	return v.PC
}

// queryCount decodes the keyword tool's counts, which arrive either as a
// number or as the string "< 10".
type queryCount int64

func (q *queryCount) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "<") {
			*q = lowVolumeEstimate
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("query count %q: %w", s, err)
		}
		*q = queryCount(n)
		return nil
	}

	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*q = queryCount(n)
	return nil
}

type keywordToolResponse struct {
	KeywordList []struct {
		RelKeyword         string     `json:"relKeyword"`
		MonthlyPcQcCnt     queryCount `json:"monthlyPcQcCnt"`
		MonthlyMobileQcCnt queryCount `json:"monthlyMobileQcCnt"`
	} `json:"keywordList"`
}

// SearchAdClient reads monthly query volumes from the search ad keyword tool.
type SearchAdClient struct {
	api        *apiClient
	baseURL    string
	customerID string
	apiKey     string
	secret     string
	now        func() time.Time
}

// MonthlyVolumes returns the last-30-day volume for each keyword the tool
// knows. Keywords it does not report are absent from the result.
func (c *SearchAdClient) MonthlyVolumes(ctx context.Context, keywords []string) (map[string]MonthlyVolume, error) {
	q := url.Values{}
	q.Set("hintKeywords", strings.Join(keywords, ","))
	q.Set("showDetail", "1")
	uri := c.baseURL + keywordToolPath + "?" + q.Encode()

	body, err := c.api.do(ctx, "keywordstool", func(req *fasthttp.Request) {
		ts := strconv.FormatInt(c.now().UnixMilli(), 10)
		req.SetRequestURI(uri)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.Set("X-Timestamp", ts)
		req.Header.Set("X-API-KEY", c.apiKey)
		req.Header.Set("X-Customer", c.customerID)
		req.Header.Set("X-Signature", sign(c.secret, ts, fasthttp.MethodGet, keywordToolPath))
	})
	if err != nil {
		return nil, fmt.Errorf("naver keywordstool: %w", err)
	}

	var parsed keywordToolResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("naver keywordstool: decode: %w", err)
	}

	wanted := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		wanted[k] = struct{}{}
	}

	out := make(map[string]MonthlyVolume, len(keywords))
	for _, item := range parsed.KeywordList {
		key := normaliseKeyword(item.RelKeyword)
		if _, ok := wanted[key]; !ok {
			continue
		}
		out[key] = MonthlyVolume{
			PC:     int64(item.MonthlyPcQcCnt),
			Mobile: int64(item.MonthlyMobileQcCnt),
		}
	}
	return out, nil
}

// sign computes the search ad API request signature.
func sign(secret, timestamp, method, path string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "." + method + "." + path))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func normaliseKeyword(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}
