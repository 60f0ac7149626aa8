package httpapi

import (
	"net/http"
	"strconv"

	"concord/domain"
	"concord/services"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

type messageRow struct {
	ID            int64  `json:"id"`
	ChannelID     int64  `json:"channel_id"`
	AuthorID      string `json:"author_id"`
	Text          string `json:"text"`
	Ts            int64  `json:"ts"`
	AuthorName    string `json:"author_name"`
	AuthorDisplay string `json:"author_display"`
}

// handleHistory serves the bounded backlog read at channel-open time.
// The live broadcast path never goes through here.
func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	channelID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid channel id", http.StatusBadRequest)
		return
	}

	records, err := a.chat.History(domain.ChannelID(channelID))
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, lo.Map(records, func(record services.MessageRecord, _ int) messageRow {
		return messageRow{
			ID:            record.Message.ID,
			ChannelID:     int64(record.Message.Channel),
			AuthorID:      record.Message.AuthorID,
			Text:          record.Message.Text,
			Ts:            record.Message.At.UnixMilli(),
			AuthorName:    record.AuthorName,
			AuthorDisplay: record.AuthorDisplay,
		}
	}))
}
