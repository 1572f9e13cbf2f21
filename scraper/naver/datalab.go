package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"naver-trends/models"
)

const (
	dataLabSearchPath = "/v1/datalab/search"

	// maxKeywordGroups is the DataLab limit of keyword groups per request.
	maxKeywordGroups = 5
)

// ratioPoint is one day of DataLab's relative search interest.
type ratioPoint struct {
	Date  string
	Ratio float64
}

type keywordGroup struct {
	GroupName string   `json:"groupName"`
	Keywords  []string `json:"keywords"`
}

type dataLabRequest struct {
	StartDate     string         `json:"startDate"`
	EndDate       string         `json:"endDate"`
	TimeUnit      string         `json:"timeUnit"`
	KeywordGroups []keywordGroup `json:"keywordGroups"`
	Device        string         `json:"device,omitempty"`
}

type dataLabResponse struct {
	Results []struct {
		Title string `json:"title"`
		Data  []struct {
			Period string  `json:"period"`
			Ratio  float64 `json:"ratio"`
		} `json:"data"`
	} `json:"results"`
}

// DataLabClient reads daily relative search interest from DataLab.
type DataLabClient struct {
	api          *apiClient
	baseURL      string
	clientID     string
	clientSecret string
}

// deviceParam maps a device type to DataLab's device filter.
func deviceParam(device models.DeviceType) string {
	if device == models.DeviceMobile {
		return "mo"
	}
	return "pc"
}

// Ratios returns each keyword's daily ratios between from and to inclusive.
// At most maxKeywordGroups keywords may be passed per call.
func (c *DataLabClient) Ratios(ctx context.Context, keywords []string, device models.DeviceType, from, to time.Time) (map[string][]ratioPoint, error) {
	if len(keywords) > maxKeywordGroups {
		return nil, fmt.Errorf("naver datalab: %d keywords exceeds the limit of %d", len(keywords), maxKeywordGroups)
	}

	payload := dataLabRequest{
		StartDate: from.Format(dateLayout),
		EndDate:   to.Format(dateLayout),
		TimeUnit:  "date",
		Device:    deviceParam(device),
	}
	for _, k := range keywords {
		payload.KeywordGroups = append(payload.KeywordGroups, keywordGroup{GroupName: k, Keywords: []string{k}})
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("naver datalab: encode: %w", err)
	}

	body, err := c.api.do(ctx, "datalab-search", func(req *fasthttp.Request) {
		req.SetRequestURI(c.baseURL + dataLabSearchPath)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		req.Header.Set("X-Naver-Client-Id", c.clientID)
		req.Header.Set("X-Naver-Client-Secret", c.clientSecret)
		req.SetBody(reqBody)
	})
	if err != nil {
		return nil, fmt.Errorf("naver datalab: %w", err)
	}

	var parsed dataLabResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("naver datalab: decode: %w", err)
	}

	out := make(map[string][]ratioPoint, len(parsed.Results))
	for _, r := range parsed.Results {
		points := make([]ratioPoint, 0, len(r.Data))
		for _, d := range r.Data {
			points = append(points, ratioPoint{Date: d.Period, Ratio: d.Ratio})
		}
		out[r.Title] = points
	}
	return out, nil
}
