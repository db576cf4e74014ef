package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

type RouteOptions struct {
	Token           string
	RateLimitPerSec float64
	RateLimitBurst  int
	WSHandler       http.HandlerFunc
}

func SetupRoutes(s *Server, opts RouteOptions) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)

	r.Group(func(r chi.Router) {
		if opts.RateLimitPerSec > 0 {
			r.Use(RateLimit(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst))
		}
		r.Use(RequireToken(opts.Token))

		r.Route("/lane/{lane}", func(r chi.Router) {
			r.Post("/start", s.Start)
			r.Post("/set-language", s.SetLanguage)
			r.Post("/set-membership", s.SetMembership)
			r.Post("/propose-selection", s.ProposeSelection)
			r.Post("/confirm-selection", s.ConfirmSelection)
			r.Post("/force-selection", s.ForceSelection)
			r.Post("/create-payment-intent", s.CreatePaymentIntent)
			r.Post("/payment-paid", s.PaymentPaid)
			r.Post("/sign-agreement", s.SignAgreement)
			r.Post("/bypass-agreement", s.BypassAgreement)
			r.Post("/confirm-bypass", s.ConfirmBypass)
			r.Post("/assign", s.Assign)
			r.Post("/assign-response", s.AssignResponse)
			r.Post("/reset", s.Reset)
			r.Get("/session-snapshot", s.SessionSnapshot)
		})

		r.Get("/waitlist", s.WaitlistList)
		r.Post("/waitlist/{entry}/offer", s.WaitlistOffer)
		r.Post("/waitlist/{entry}/cancel", s.WaitlistCancel)
		r.Get("/inventory/available", s.InventoryAvailable)

		if opts.WSHandler != nil {
			r.Get("/ws", http.HandlerFunc(opts.WSHandler))
		}
	})

	return r
}
