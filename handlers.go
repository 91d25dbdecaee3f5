package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/aesanjagral/caseledger/pkg/ledger"
	"github.com/aesanjagral/caseledger/pkg/models"
)

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	if app.runtimeEnv == "dev" {
		fmt.Fprintf(w, "It works! [dev]")
	} else {
		fmt.Fprintf(w, "It works!")
	}
}

func (app *application) authenticate(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	u, err := app.user.Get(username, password)
	if err != nil {
		if errors.Is(err, models.ErrNoRecord) || errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			app.notFound(w)
		} else {
			app.serverError(w, err)
		}
		return
	}

	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)

	claims["username"] = u.Username
	claims["name"] = u.Name
	claims["exp"] = time.Now().Add(time.Minute * 180).Unix()

	ts, err := token.SignedString(app.secret)
	if err != nil {
		app.serverError(w, err)
		return
	}

	user := models.UserResponse{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role, Token: ts}
	js, err := json.Marshal(user)
	if err != nil {
		app.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(js)
}

func (app *application) newCase(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	requiredParams := []string{"file_no", "customer_name", "final_amount"}
	for _, param := range requiredParams {
		if v := r.PostForm.Get(param); v == "" {
			fmt.Println(param)
			app.clientError(w, http.StatusBadRequest)
			return
		}
	}

	date := r.PostForm.Get("date")
	if date == "" {
		date = time.Now().Format(ledger.DateFormat)
	}

	c := models.CaseRecord{
		FileNo:       r.PostForm.Get("file_no"),
		Date:         date,
		CustomerName: r.PostForm.Get("customer_name"),
		MobileNumber: r.PostForm.Get("mobile_number"),
		Village:      r.PostForm.Get("village"),
		RSBlockNo:    r.PostForm.Get("rs_block_no"),
		NewNo:        r.PostForm.Get("new_no"),
		OldNo:        r.PostForm.Get("old_no"),
		PlotNo:       r.PostForm.Get("plot_no"),
		FinalAmount:  r.PostForm.Get("final_amount"),
	}
	if workTypes := r.PostForm.Get("work_types"); workTypes != "" {
		c.WorkTypes = strings.Split(workTypes, ",")
	}

	err = app.cases.Insert(c)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateFileNo) {
			http.Error(w, "file number already exists", http.StatusConflict)
			return
		}
		app.serverError(w, err)
		return
	}

	app.logActivity("Case", "Added", fmt.Sprintf("Created case %s for %s", c.FileNo, c.CustomerName))
	app.syncStore()

	fmt.Fprintf(w, "%s", c.FileNo)
}

func (app *application) searchCases(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	status := r.URL.Query().Get("status")
	month := r.URL.Query().Get("month")
	year := r.URL.Query().Get("year")

	results, err := app.cases.Search(search, status, month, year)
	if err != nil {
		app.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func (app *application) caseDetails(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileNo := vars["fileno"]
	if fileNo == "" {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	detail, err := app.cases.Get(fileNo)
	if err != nil {
		if errors.Is(err, models.ErrNoRecord) {
			app.notFound(w)
		} else {
			app.serverError(w, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}

func (app *application) relatedCases(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileNo := vars["fileno"]
	if fileNo == "" {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	related, err := app.cases.Related(fileNo)
	if err != nil {
		if errors.Is(err, models.ErrNoRecord) {
			app.notFound(w)
		} else {
			app.serverError(w, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(related)
}

func (app *application) casePayments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileNo := vars["fileno"]
	if fileNo == "" {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	payments, err := app.payment.List(fileNo)
	if err != nil {
		if errors.Is(err, models.ErrNoRecord) {
			app.notFound(w)
		} else {
			app.serverError(w, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payments)
}

// entryFromForm assembles a payment entry from the posted fields. Field
// validation is the reconciler's job, not the handler's.
func entryFromForm(form url.Values) models.PaymentEntry {
	return models.PaymentEntry{
		AmountPaid:    form.Get("amount"),
		PaymentDate:   form.Get("date"),
		PaymentMethod: form.Get("method"),
		Narration:     form.Get("narration"),
		ChequeNo:      form.Get("cheque_no"),
		ChequeDate:    form.Get("cheque_date"),
	}
}

func (app *application) addPayment(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	requiredParams := []string{"file_no", "amount", "date", "method"}
	for _, param := range requiredParams {
		if v := r.PostForm.Get(param); v == "" {
			fmt.Println(param)
			app.clientError(w, http.StatusBadRequest)
			return
		}
	}

	fileNo := r.PostForm.Get("file_no")
	entry := entryFromForm(r.PostForm)
	confirmed := r.PostForm.Get("confirm_overpayment") == "1"

	err = app.payment.Add(fileNo, entry, confirmed)
	if err != nil {
		app.paymentError(w, err)
		return
	}

	app.logActivity("Payment", "Added", fmt.Sprintf("Added payment of %s via %s for file %s",
		humanize.CommafWithDigits(ledger.ParseAmount(entry.AmountPaid), 2), entry.PaymentMethod, fileNo))
	app.syncStore()

	detail, err := app.cases.Get(fileNo)
	if err != nil {
		app.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}

func (app *application) editPayment(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	requiredParams := []string{"file_no", "index", "amount", "date", "method"}
	for _, param := range requiredParams {
		if v := r.PostForm.Get(param); v == "" {
			fmt.Println(param)
			app.clientError(w, http.StatusBadRequest)
			return
		}
	}

	index, err := strconv.Atoi(r.PostForm.Get("index"))
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	fileNo := r.PostForm.Get("file_no")
	entry := entryFromForm(r.PostForm)

	err = app.payment.Edit(fileNo, index, entry)
	if err != nil {
		app.paymentError(w, err)
		return
	}

	app.logActivity("Payment", "Modified", fmt.Sprintf("Modified payment %d of file %s to %s via %s",
		index, fileNo, entry.AmountPaid, entry.PaymentMethod))
	app.syncStore()

	detail, err := app.cases.Get(fileNo)
	if err != nil {
		app.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}

func (app *application) deletePayment(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	requiredParams := []string{"file_no", "index"}
	for _, param := range requiredParams {
		if v := r.PostForm.Get(param); v == "" {
			fmt.Println(param)
			app.clientError(w, http.StatusBadRequest)
			return
		}
	}

	index, err := strconv.Atoi(r.PostForm.Get("index"))
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	fileNo := r.PostForm.Get("file_no")

	err = app.payment.Delete(fileNo, index)
	if err != nil {
		app.paymentError(w, err)
		return
	}

	app.logActivity("Payment", "Deleted", fmt.Sprintf("Deleted payment %d of file %s", index, fileNo))
	app.syncStore()

	detail, err := app.cases.Get(fileNo)
	if err != nil {
		app.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}

func (app *application) distributePayment(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	requiredParams := []string{"file_nos", "total_amount", "strategy", "date", "method"}
	for _, param := range requiredParams {
		if v := r.PostForm.Get(param); v == "" {
			fmt.Println(param)
			app.clientError(w, http.StatusBadRequest)
			return
		}
	}

	fileNos := strings.Split(r.PostForm.Get("file_nos"), ",")
	for i := range fileNos {
		fileNos[i] = strings.TrimSpace(fileNos[i])
	}

	total, err := strconv.ParseFloat(r.PostForm.Get("total_amount"), 64)
	if err != nil {
		app.validationError(w, models.ErrInvalidAmount)
		return
	}

	strategy, err := ledger.ParseStrategy(r.PostForm.Get("strategy"))
	if err != nil {
		app.validationError(w, err)
		return
	}

	var manual []float64
	if raw := r.PostForm.Get("manual_amounts"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				app.validationError(w, models.ErrInvalidAmount)
				return
			}
			manual = append(manual, v)
		}
	}

	entry := entryFromForm(r.PostForm)

	dist, err := app.payment.Distribute(fileNos, total, strategy, manual, entry)
	if err != nil {
		app.paymentError(w, err)
		return
	}

	app.logActivity("Payment", "Distributed", fmt.Sprintf("Distributed %s across %d cases (%s)",
		humanize.CommafWithDigits(total, 2), len(dist.Shares), strategy))
	app.syncStore()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dist)
}

func (app *application) approveWork(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	fileNo := r.PostForm.Get("file_no")
	if fileNo == "" {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	err = app.cases.Approve(fileNo)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNoRecord):
			app.notFound(w)
		case errors.Is(err, models.ErrAlreadyApproved):
			http.Error(w, "work is already approved", http.StatusConflict)
		default:
			app.serverError(w, err)
		}
		return
	}

	app.logActivity("Approval", "Approved", fmt.Sprintf("Approved work for file %s", fileNo))
	app.syncStore()

	fmt.Fprintf(w, "%s", fileNo)
}

func (app *application) settlementSearch(w http.ResponseWriter, r *http.Request) {
	results, err := app.cases.Settlements()
	if err != nil {
		app.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func (app *application) markPaymentDone(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	fileNo := r.PostForm.Get("file_no")
	if fileNo == "" {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	err = app.cases.MarkPaymentDone(fileNo)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNoRecord):
			app.notFound(w)
		case errors.Is(err, models.ErrAlreadyDone):
			http.Error(w, "payment is already marked as done", http.StatusConflict)
		default:
			app.serverError(w, err)
		}
		return
	}

	app.logActivity("Settlement", "Done", fmt.Sprintf("Marked payment done for file %s", fileNo))
	app.syncStore()

	fmt.Fprintf(w, "%s", fileNo)
}

func (app *application) dashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := app.reporting.Summary()
	if err != nil {
		app.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (app *application) dashboardActivities(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	limit, err := strconv.Atoi(vars["limit"])
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	activities, err := app.activity.Recent(limit)
	if err != nil {
		app.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(activities)
}

// paymentError maps reconciler errors onto HTTP responses: unknown records
// and indexes to 404, the advisory overpayment gate to 409 so clients can
// resubmit confirmed, validation failures to 422 with the reason.
func (app *application) paymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNoRecord), errors.Is(err, models.ErrPaymentNotFound):
		app.notFound(w)
	case errors.Is(err, models.ErrOverpayment):
		http.Error(w, "payment exceeds the final amount; resubmit with confirm_overpayment=1 to proceed", http.StatusConflict)
	case errors.Is(err, models.ErrMissingAmount),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidMethod),
		errors.Is(err, models.ErrMissingChequeDetails),
		errors.Is(err, models.ErrFutureDatedPayment),
		errors.Is(err, models.ErrInvalidDate),
		errors.Is(err, models.ErrNoCasesSelected),
		errors.Is(err, models.ErrDistributionMismatch),
		errors.Is(err, models.ErrNothingRemaining),
		errors.Is(err, models.ErrUnknownStrategy):
		app.validationError(w, err)
	default:
		app.serverError(w, err)
	}
}
