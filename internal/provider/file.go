package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"osprey/internal/logger"
	"osprey/internal/types"
)

// chainSchema 约束快照文件的最小结构，字段级的宽松解析交给 gjson。
const chainSchema = `{
  "type": "object",
  "required": ["symbol", "stock_price", "expiries"],
  "properties": {
    "symbol": {"type": "string", "minLength": 1},
    "stock_price": {"type": "number", "exclusiveMinimum": 0},
    "next_earnings": {"type": "string"},
    "historical_closes": {"type": "array", "items": {"type": "number"}},
    "expiries": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["expiry_date"],
        "properties": {
          "expiry_date": {"type": "string"},
          "calls": {"type": "array"},
          "puts": {"type": "array"}
        }
      }
    }
  }
}`

// FileSource 从目录中按 <SYMBOL>.json 读取期权链快照。
type FileSource struct {
	dir    string
	schema *jsonschema.Schema
	now    func() time.Time
}

var _ ChainSource = (*FileSource)(nil)

func NewFileSource(dir string) (*FileSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("期权链数据目录不可用: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("期权链数据路径不是目录: %s", dir)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("chain.json", strings.NewReader(chainSchema)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("chain.json")
	if err != nil {
		return nil, err
	}
	return &FileSource{dir: dir, schema: schema, now: time.Now}, nil
}

// Symbols 列出目录下全部可用标的。
func (f *FileSource) Symbols(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, strings.ToUpper(strings.TrimSuffix(e.Name(), ".json")))
	}
	sort.Strings(out)
	return out, nil
}

// Snapshot 读取并校验单个标的的快照文件。
func (f *FileSource) Snapshot(ctx context.Context, symbol string) (ChainSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return ChainSnapshot{}, err
	}
	path := filepath.Join(f.dir, strings.ToUpper(symbol)+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return ChainSnapshot{}, fmt.Errorf("读取期权链快照失败 (%s): %w", symbol, err)
	}
	if err := f.validate(raw); err != nil {
		return ChainSnapshot{}, fmt.Errorf("期权链快照格式错误 (%s): %w", symbol, err)
	}
	return f.parse(raw), nil
}

func (f *FileSource) validate(raw []byte) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return f.schema.Validate(v)
}

// parse 用 gjson 做容错提取，单条报价缺执行价时跳过并告警。
func (f *FileSource) parse(raw []byte) ChainSnapshot {
	root := gjson.ParseBytes(raw)
	snap := ChainSnapshot{
		Symbol:       strings.ToUpper(root.Get("symbol").String()),
		StockPrice:   root.Get("stock_price").Float(),
		NextEarnings: root.Get("next_earnings").String(),
	}
	root.Get("historical_closes").ForEach(func(_, v gjson.Result) bool {
		snap.HistoricalCloses = append(snap.HistoricalCloses, v.Float())
		return true
	})

	root.Get("expiries").ForEach(func(_, exp gjson.Result) bool {
		slice := ExpirySlice{
			ExpiryDate:   exp.Get("expiry_date").String(),
			DaysToExpiry: int(exp.Get("days_to_expiry").Int()),
		}
		if slice.DaysToExpiry == 0 {
			slice.DaysToExpiry = f.daysToExpiry(slice.ExpiryDate)
		}
		slice.Calls = f.parseQuotes(snap.Symbol, exp.Get("calls"), types.Call)
		slice.Puts = f.parseQuotes(snap.Symbol, exp.Get("puts"), types.Put)
		snap.Expiries = append(snap.Expiries, slice)
		return true
	})
	return snap
}

func (f *FileSource) parseQuotes(symbol string, arr gjson.Result, side types.OptionSide) []types.OptionQuote {
	var out []types.OptionQuote
	arr.ForEach(func(_, q gjson.Result) bool {
		strike := q.Get("strike").Float()
		if strike <= 0 {
			logger.Warnf("provider: %s 存在缺少执行价的报价，已跳过", symbol)
			return true
		}
		out = append(out, types.OptionQuote{
			ContractSymbol:    q.Get("contract_symbol").String(),
			Side:              side,
			Strike:            strike,
			LastPrice:         q.Get("last_price").Float(),
			Bid:               q.Get("bid").Float(),
			Ask:               q.Get("ask").Float(),
			Volume:            q.Get("volume").Int(),
			OpenInterest:      q.Get("open_interest").Int(),
			ImpliedVolatility: q.Get("implied_volatility").Float(),
			InTheMoney:        q.Get("in_the_money").Bool(),
		})
		return true
	})
	return out
}

func (f *FileSource) daysToExpiry(expiry string) int {
	t, err := time.Parse("2006-01-02", expiry)
	if err != nil {
		return 0
	}
	d := int(t.Sub(f.now()).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
