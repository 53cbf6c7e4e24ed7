package http

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/vectorspace/engine"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/store"
)

// SnapshotPattern is the route of HandleSnapshot.
const SnapshotPattern = "GET /sessions/{id}/{file}"

var contentTypes = map[string]string{
	"png": "image/png",
	"svg": "image/svg+xml",
}

// HandleSnapshot renders the current state of a session as
// snapshot.png or snapshot.svg. The view is rendered by a fresh engine, the
// participants of the session are left untouched.
func HandleSnapshot(sessions *models.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessions.GetByGlobalID(r.PathValue("id"))
		if !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		format, ok := strings.CutPrefix(r.PathValue("file"), "snapshot.")
		contentType, known := contentTypes[format]
		if !ok || !known {
			http.Error(w, "unknown snapshot file", http.StatusNotFound)
			return
		}

		var values store.Memory
		values.Apply(store.ChangesFrom(session.State(), store.OriginHost)...)

		e, err := engine.New(engine.Config{Store: &values})
		if err != nil {
			internalError(w, sessions.GlobalSessionID(session.ID), err)
			return
		}

		var buf bytes.Buffer
		err = e.Snapshot(&buf, format)
		if cerr := e.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			internalError(w, sessions.GlobalSessionID(session.ID), err)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

func internalError(w http.ResponseWriter, sessionID string, err error) {
	logs.WithTag("session_id", sessionID).
		Error(errors.New("rendering session snapshot failed").Wrap(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
