package main

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

func (app *application) serverError(w http.ResponseWriter, err error) {
	trace := fmt.Sprintf("%s\n%s", err.Error(), debug.Stack())
	app.errorLog.Output(2, trace)

	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (app *application) clientError(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

func (app *application) notFound(w http.ResponseWriter) {
	app.clientError(w, http.StatusNotFound)
}

// validationError reports an input problem with enough detail to fix it.
func (app *application) validationError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusUnprocessableEntity)
}

// logActivity records an entry on the activity log; failures are logged
// and otherwise ignored so they never fail the originating operation.
func (app *application) logActivity(module, action, details string) {
	if err := app.activity.Log(module, action, details); err != nil {
		app.errorLog.Printf("activity log: %v", err)
	}
}
