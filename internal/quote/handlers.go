package quote

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/basket-pricing/internal/common"
	"github.com/noah-isme/basket-pricing/internal/receipt"
)

// MaxBasketEntries caps the number of entries accepted per request.
const MaxBasketEntries = 500

// Handler exposes quote endpoints.
type Handler struct {
	Svc      *Service
	validate *validator.Validate
}

type quoteRequest struct {
	Basket []string `json:"basket" validate:"required,min=1,max=500,dive,required"`
}

type offerView struct {
	Name      string          `json:"name"`
	Label     string          `json:"label"`
	Threshold int             `json:"threshold"`
	Amount    decimal.Decimal `json:"amount"`
	Rule      string          `json:"rule"`
	Products  []string        `json:"products,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// NewHandler constructs a Handler backed by svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Create prices the submitted basket.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	q, ok := h.quote(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": q})
}

// Receipt prices the submitted basket and returns the plain-text receipt.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	q, ok := h.quote(w, r)
	if !ok {
		return
	}
	w.Header().Set("X-Quote-ID", q.ID)
	common.Text(w, http.StatusOK, receipt.Format(q.Summary))
}

// Offers lists the configured discount rules in evaluation order.
func (h *Handler) Offers(w http.ResponseWriter, _ *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	rules := h.Svc.Calculator().Rules()
	out := make([]offerView, 0, len(rules))
	for _, rule := range rules {
		out = append(out, offerView{
			Name:      rule.Name,
			Label:     rule.Label(),
			Threshold: rule.Threshold,
			Amount:    rule.Amount,
			Rule:      string(rule.Kind),
			Products:  rule.Products,
		})
	}
	common.List(w, out)
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) (Quote, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return Quote{}, false
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return Quote{}, false
	}
	if err := h.validator().Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid basket payload", validationDetails(err))
		return Quote{}, false
	}
	q, err := h.Svc.Quote(r.Context(), req.Basket)
	if err != nil {
		common.WriteError(w, err)
		return Quote{}, false
	}
	return q, true
}

func (h *Handler) validator() *validator.Validate {
	if h.validate == nil {
		h.validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return h.validate
}

func validationDetails(err error) []fieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldError{Field: fe.Namespace(), Rule: fe.Tag()})
	}
	return out
}
