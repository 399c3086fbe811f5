package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"PyramidSentinel/internal/model"
)

const (
	sinaBaseURL   = "http://hq.sinajs.cn"
	sinaReferer   = "https://finance.sina.com.cn"
	sinaUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	sinaMinFields = 32
)

// ErrUnknownSymbol is returned when the provider has no data for a symbol.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Shanghai location for Sina timestamps.
var cst = time.FixedZone("CST", 8*60*60)

// SinaFetcher implements Fetcher using the Sina Finance quote endpoint.
type SinaFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewSinaFetcher creates a new fetcher with optional proxy support.
func NewSinaFetcher(proxyURL string) *SinaFetcher {
	return &SinaFetcher{
		BaseURL: sinaBaseURL,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *SinaFetcher) Name() string { return "sina" }

// SinaSymbol adds the exchange prefix to a bare A-share code: 6xxxxx trades
// in Shanghai, 0xxxxx and 3xxxxx in Shenzhen. Anything else is returned as is.
func SinaSymbol(code string) string {
	code = strings.TrimSpace(code)
	switch {
	case strings.HasPrefix(code, "6"):
		return "sh" + code
	case strings.HasPrefix(code, "0"), strings.HasPrefix(code, "3"):
		return "sz" + code
	}
	return code
}

func (f *SinaFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	sym := SinaSymbol(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/list=%s", f.BaseURL, sym), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", sinaReferer)
	req.Header.Set("User-Agent", sinaUserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sina fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("sina read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sina: status %d, body: %s", resp.StatusCode, string(body))
	}

	q, err := ParseSinaQuote(sym, string(body))
	if err != nil {
		return nil, err
	}
	q.FetchedAt = time.Now()
	return q, nil
}

// ParseSinaQuote parses a decoded `var hq_str_<sym>="...";` line.
func ParseSinaQuote(symbol, body string) (*model.Quote, error) {
	start := strings.IndexByte(body, '"')
	end := strings.LastIndexByte(body, '"')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("sina: malformed response for %s", symbol)
	}
	payload := body[start+1 : end]
	if payload == "" {
		return nil, fmt.Errorf("sina %s: %w", symbol, ErrUnknownSymbol)
	}

	fields := strings.Split(payload, ",")
	if len(fields) < sinaMinFields {
		return nil, fmt.Errorf("sina: expected at least %d fields, got %d", sinaMinFields, len(fields))
	}

	nums := make(map[int]float64, 7)
	for _, i := range []int{1, 2, 3, 4, 5, 8, 9} {
		d, err := decimal.NewFromString(strings.TrimSpace(fields[i]))
		if err != nil {
			return nil, fmt.Errorf("sina: field %d %q: %w", i, fields[i], err)
		}
		nums[i], _ = d.Float64()
	}

	q := &model.Quote{
		Symbol:    symbol,
		Name:      strings.TrimSpace(fields[0]),
		Open:      nums[1],
		PrevClose: nums[2],
		Price:     nums[3],
		High:      nums[4],
		Low:       nums[5],
		Volume:    nums[8],
		Turnover:  nums[9],
	}
	q.ChangePct = model.ChangePercent(q.Price, q.PrevClose)
	if ts, err := time.ParseInLocation("2006-01-02 15:04:05", fields[30]+" "+fields[31], cst); err == nil {
		q.QuotedAt = ts
	}
	return q, nil
}
