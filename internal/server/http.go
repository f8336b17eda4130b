package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"time"

	"visaHedgeBot/internal/finance"
	"visaHedgeBot/internal/hedge"
)

// Recommender runs one hedge recommendation.
type Recommender interface {
	Recommend(ctx context.Context, in finance.InputRecord) (hedge.Result, error)
}

// RecommendRequest is the JSON body of POST /api/recommend and /api/chart.
type RecommendRequest struct {
	CurrentVisa         string   `json:"current_visa"`
	ExpirationDate      string   `json:"expiration_date"`
	PendingApplications []string `json:"pending_applications"`
	ExpectedCosts       float64  `json:"expected_costs"`
	InvestableCash      float64  `json:"investable_cash"`
	MonthlyContribution float64  `json:"monthly_contributions"`
}

// Input converts the request into an InputRecord.
func (r RecommendRequest) Input() (finance.InputRecord, error) {
	exp, err := time.Parse("2006-01-02", r.ExpirationDate)
	if err != nil {
		return finance.InputRecord{}, fmt.Errorf("expiration_date must be YYYY-MM-DD, got %q", r.ExpirationDate)
	}
	return finance.InputRecord{
		CurrentVisa:         r.CurrentVisa,
		Expiration:          exp,
		PendingApplications: r.PendingApplications,
		ExpectedCosts:       r.ExpectedCosts,
		InvestableCash:      r.InvestableCash,
		MonthlyContribution: r.MonthlyContribution,
	}, nil
}

func NewHTTPMux(webhook http.HandlerFunc, svc Recommender) *http.ServeMux {
	mux := http.NewServeMux()
	if webhook != nil {
		mux.HandleFunc("/telegram/webhook", webhook)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	if svc != nil {
		mux.HandleFunc("/api/recommend", recommendHandler(svc))
		mux.HandleFunc("/api/chart", chartHandler(svc))
	}
	return mux
}

func ListenAndServe(addr string, mux *http.ServeMux) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func recommendHandler(svc Recommender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := run(w, r, svc)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil {
			log.Printf("http: encode result: %v", err)
		}
	}
}

func chartHandler(svc Recommender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := run(w, r, svc)
		if !ok {
			return
		}
		img, err := finance.MakeProjectionChart("Projected balance • "+res.Input.CurrentVisa, res.Series())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
	}
}

// run decodes the request and calls the service, writing the error response
// itself when it returns false.
func run(w http.ResponseWriter, r *http.Request, svc Recommender) (hedge.Result, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return hedge.Result{}, false
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, errors.New("content type must be application/json"))
		return hedge.Result{}, false
	}

	var req RecommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return hedge.Result{}, false
	}
	in, err := req.Input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return hedge.Result{}, false
	}

	res, err := svc.Recommend(r.Context(), in)
	switch {
	case errors.Is(err, hedge.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
		return hedge.Result{}, false
	case errors.Is(err, hedge.ErrPrimaryAdvisor):
		log.Printf("http: recommend failed: %v", err)
		writeError(w, http.StatusBadGateway, err)
		return hedge.Result{}, false
	case err != nil:
		log.Printf("http: recommend failed: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return hedge.Result{}, false
	}
	return res, true
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
