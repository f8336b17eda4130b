package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"visaHedgeBot/internal/analytics"
	"visaHedgeBot/internal/finance"
	"visaHedgeBot/internal/hedge"
	"visaHedgeBot/internal/storage"
)

var (
	// /hedge VISA YYYY-MM-DD APPS COSTS CASH MONTHLY
	reHedge = regexp.MustCompile(`^/hedge(?:@[\w_]+)?(?:\s+(.*))?$`)
	// /history [n]
	reHistory = regexp.MustCompile(`^/history(?:@[\w_]+)?(?:\s+(\d+))?$`)
	// /stats [days]
	reStats = regexp.MustCompile(`^/stats(?:@[\w_]+)?(?:\s+(\d+))?$`)
	reHelp  = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

const hedgeUsage = "Usage: /hedge VISA YYYY-MM-DD APPS COSTS CASH MONTHLY\n" +
	"APPS is a comma-separated list or - for none, e.g.\n" +
	"/hedge H-1B 2027-06-30 EB-2,I-485 5000 10000 500"

// HedgeService runs one recommendation.
type HedgeService interface {
	Recommend(ctx context.Context, in finance.InputRecord) (hedge.Result, error)
}

// History is the read side of request persistence.
type History interface {
	RecentRequests(ctx context.Context, limit int) ([]storage.SavedRequest, error)
	VisaMix(ctx context.Context, since time.Time) (map[string]int, error)
	DailyCounts(ctx context.Context, since time.Time) ([]storage.DayCount, error)
}

type Handlers struct {
	api     *tgbotapi.BotAPI
	svc     HedgeService
	history History
	timeout time.Duration
}

func NewHandlers(api *tgbotapi.BotAPI, svc HedgeService, history History) *Handlers {
	return &Handlers{api: api, svc: svc, history: history, timeout: 3 * time.Minute}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	txt := strings.TrimSpace(m.Text)
	switch {
	case reHedge.MatchString(txt):
		g := reHedge.FindStringSubmatch(txt)
		in, err := ParseHedgeArgs(g[1])
		if err != nil {
			h.reply(m.Chat.ID, err.Error()+"\n\n"+hedgeUsage)
			return
		}
		h.reply(m.Chat.ID, "Asking the advisors, this can take a minute…")
		h.handleHedge(m.Chat.ID, in)

	case reHistory.MatchString(txt):
		limit := 5
		if g := reHistory.FindStringSubmatch(txt); len(g) == 2 && g[1] != "" {
			fmt.Sscanf(g[1], "%d", &limit)
			limit = clamp(limit, 1, 20)
		}
		h.handleHistory(m.Chat.ID, limit)

	case reStats.MatchString(txt):
		days := 30
		if g := reStats.FindStringSubmatch(txt); len(g) == 2 && g[1] != "" {
			fmt.Sscanf(g[1], "%d", &days)
			days = clamp(days, 1, 365)
		}
		h.handleStats(m.Chat.ID, days)

	case reHelp.MatchString(txt):
		h.handleHelp(m.Chat.ID)
	}
}

func (h *Handlers) handleHedge(chatID int64, in finance.InputRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	res, err := h.svc.Recommend(ctx, in)
	if err != nil {
		log.Printf("telegram: hedge failed for chat %d: %v", chatID, err)
		if errors.Is(err, hedge.ErrInvalidInput) {
			h.reply(chatID, err.Error()+"\n\n"+hedgeUsage)
			return
		}
		h.reply(chatID, "Recommendation failed: "+err.Error())
		return
	}
	h.reply(chatID, res.Summary())

	img, err := finance.MakeProjectionChart("Projected balance • "+in.CurrentVisa, res.Series())
	if err != nil {
		log.Printf("telegram: projection chart failed: %v", err)
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "hedge_projection.png", Bytes: img})
	photo.Caption = fmt.Sprintf("Plan A %s vs plan B %s",
		finance.FormatUSD(res.PlanA.Projection.FutureValue), finance.FormatUSD(res.PlanB.Projection.FutureValue))
	h.send(photo)
}

func (h *Handlers) handleHistory(chatID int64, limit int) {
	if h.history == nil {
		h.reply(chatID, "History is not available.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	reqs, err := h.history.RecentRequests(ctx, limit)
	if err != nil {
		h.reply(chatID, "History failed: "+err.Error())
		return
	}
	h.reply(chatID, FormatHistory(reqs))
}

func (h *Handlers) handleStats(chatID int64, days int) {
	if h.history == nil {
		h.reply(chatID, "Stats are not available.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	since := time.Now().AddDate(0, 0, -days)

	mix, err := h.history.VisaMix(ctx, since)
	if err != nil {
		h.reply(chatID, "Stats failed: "+err.Error())
		return
	}
	h.reply(chatID, analytics.FormatStatsText(mix, days))
	if len(mix) == 0 {
		return
	}
	if img, err := analytics.MakeVisaMixChart(mix, days); err == nil {
		h.send(tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "visa_mix.png", Bytes: img}))
	} else {
		log.Printf("telegram: visa mix chart failed: %v", err)
	}

	counts, err := h.history.DailyCounts(ctx, since)
	if err != nil || len(counts) < 2 {
		return
	}
	if img, err := analytics.MakeRequestsChart(counts, days); err == nil {
		h.send(tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "requests.png", Bytes: img}))
	}
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /hedge VISA YYYY-MM-DD APPS COSTS CASH MONTHLY - Two hedge portfolios for your visa timeline\n" +
		"- /history [n] - Last n hedge requests (default: 5, max: 20)\n" +
		"- /stats [days] - Visa mix of recent requests (default: 30)\n" +
		"\nAPPS is comma-separated (EB-2,I-485) or - for none. Amounts are in USD."
	h.reply(chatID, help)
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		log.Printf("telegram: send failed: %v", err)
	}
}

// ParseHedgeArgs turns the arguments of /hedge into an InputRecord.
func ParseHedgeArgs(args string) (finance.InputRecord, error) {
	f := strings.Fields(args)
	if len(f) != 6 {
		return finance.InputRecord{}, fmt.Errorf("expected 6 arguments, got %d", len(f))
	}
	exp, err := time.Parse("2006-01-02", f[1])
	if err != nil {
		return finance.InputRecord{}, fmt.Errorf("bad expiration date %q, want YYYY-MM-DD", f[1])
	}

	var apps []string
	if f[2] != "-" {
		for _, a := range strings.Split(f[2], ",") {
			if a = strings.TrimSpace(a); a != "" {
				apps = append(apps, a)
			}
		}
	}

	names := []string{"costs", "cash", "monthly contribution"}
	amounts := make([]float64, 3)
	for i, raw := range f[3:] {
		v, err := parseAmount(raw)
		if err != nil {
			return finance.InputRecord{}, fmt.Errorf("bad %s %q", names[i], raw)
		}
		amounts[i] = v
	}

	in := finance.InputRecord{
		CurrentVisa:         f[0],
		Expiration:          exp,
		PendingApplications: apps,
		ExpectedCosts:       amounts[0],
		InvestableCash:      amounts[1],
		MonthlyContribution: amounts[2],
	}
	if err := in.Validate(); err != nil {
		return finance.InputRecord{}, err
	}
	return in, nil
}

func parseAmount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimPrefix(raw, "$"), ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// FormatHistory lists saved requests, newest first.
func FormatHistory(reqs []storage.SavedRequest) string {
	if len(reqs) == 0 {
		return "No hedge requests yet."
	}
	var b strings.Builder
	b.WriteString("Recent hedge requests\n\n")
	for _, r := range reqs {
		apps := "none"
		if len(r.Input.PendingApplications) > 0 {
			apps = strings.Join(r.Input.PendingApplications, ", ")
		}
		fmt.Fprintf(&b, "• %s %s exp %s, apps %s, costs %s\n",
			r.CreatedAt.UTC().Format("2006-01-02 15:04"), r.Input.CurrentVisa,
			r.Input.Expiration.Format("2006-01-02"), apps, finance.FormatUSD(r.Input.ExpectedCosts))
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
