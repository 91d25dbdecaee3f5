package main

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders)

	r := mux.NewRouter()
	r.Handle("/", http.HandlerFunc(app.home)).Methods("GET")
	r.HandleFunc("/authenticate", http.HandlerFunc(app.authenticate)).Methods("POST")
	r.Handle("/case/new", app.validateToken(http.HandlerFunc(app.newCase))).Methods("POST")
	r.Handle("/case/search", app.validateToken(http.HandlerFunc(app.searchCases))).Methods("GET")
	r.Handle("/case/details/{fileno}", app.validateToken(http.HandlerFunc(app.caseDetails))).Methods("GET")
	r.Handle("/case/related/{fileno}", app.validateToken(http.HandlerFunc(app.relatedCases))).Methods("GET")
	r.Handle("/case/payments/{fileno}", app.validateToken(http.HandlerFunc(app.casePayments))).Methods("GET")
	r.Handle("/case/payment", app.validateToken(http.HandlerFunc(app.addPayment))).Methods("POST")
	r.Handle("/case/payment/edit", app.validateToken(http.HandlerFunc(app.editPayment))).Methods("POST")
	r.Handle("/case/payment/delete", app.validateToken(http.HandlerFunc(app.deletePayment))).Methods("POST")
	r.Handle("/case/payment/distribute", app.validateToken(http.HandlerFunc(app.distributePayment))).Methods("POST")
	r.Handle("/case/approve", app.validateToken(http.HandlerFunc(app.approveWork))).Methods("POST")
	r.Handle("/settlement/search", app.validateToken(http.HandlerFunc(app.settlementSearch))).Methods("GET")
	r.Handle("/settlement/done", app.validateToken(http.HandlerFunc(app.markPaymentDone))).Methods("POST")
	r.Handle("/dashboard/summary", app.validateToken(http.HandlerFunc(app.dashboardSummary))).Methods("GET")
	r.Handle("/dashboard/activities/{limit}", app.validateToken(http.HandlerFunc(app.dashboardActivities))).Methods("GET")

	return standardMiddleware.Then(handlers.CORS(handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"}), handlers.AllowedMethods([]string{"GET", "POST", "PUT", "HEAD", "OPTIONS"}), handlers.AllowedOrigins([]string{"*"}))(r))
}
