package monitor

import (
	"fmt"
	"time"

	"regwatch/pkg/tgui"
)

func formatChanges(targetID, subject string, changes []FieldChange) string {
	parts := []tgui.H{
		tgui.Raw("🔔 " + tgui.B("Record updated").String()),
		tgui.JoinH(" ", tgui.Code(targetID), tgui.Esc(subject)),
	}
	for _, c := range changes {
		parts = append(parts, tgui.JoinH(" ",
			tgui.B(c.Field+":"),
			tgui.Esc(c.From),
			tgui.Raw("→"),
			tgui.Esc(c.To),
		))
	}
	return tgui.JoinH("\n", parts...).String()
}

func formatHeartbeat(targetID, subject string, values map[string]string, lastCheck time.Time) string {
	parts := []tgui.H{
		tgui.Raw("✅ " + tgui.B("Still unchanged").String()),
		tgui.JoinH(" ", tgui.Code(targetID), tgui.Esc(subject)),
	}
	for _, f := range TrackedFields {
		parts = append(parts, tgui.JoinH(" ",
			tgui.B(f+":"),
			tgui.Esc(displayValue(values[f])),
		))
	}
	parts = append(parts, tgui.I("checked "+lastCheck.Format("2006-01-02 15:04")))
	return tgui.JoinH("\n", parts...).String()
}

func formatNotFound(targetID string) string {
	return tgui.JoinH("\n",
		tgui.Raw("⚠️ "+tgui.B("Record not found in dataset").String()),
		tgui.Code(targetID),
	).String()
}

func formatRunError(err error) string {
	return tgui.JoinH("\n",
		tgui.Raw("❌ "+tgui.B("Check failed").String()),
		tgui.Esc(fmt.Sprint(err)),
	).String()
}
