package speech

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// SSML renders req as a single-voice SSML document.
func SSML(req Request) string {
	v := req.Voice

	pitch := v.Pitch
	if pitch == "" {
		pitch = "default"
	}

	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s">`+
			`<voice name="%s"><prosody rate="%s" pitch="%s" volume="%d">%s</prosody></voice></speak>`,
		escape(v.Locale), escape(v.Name), prosodyRate(v.SpeakingRate), escape(pitch), int(v.Volume*100), escape(req.Text),
	)
}

// escape makes s safe as XML character data and inside quoted attributes.
func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// prosodyRate renders 1.0 as "default", slower rates as the absolute factor
// and faster rates as a relative increase.
func prosodyRate(rate float64) string {
	switch {
	case rate == 1.0:
		return "default"
	case rate < 1.0:
		return fmt.Sprintf("%.1f", rate)
	default:
		return fmt.Sprintf("+%.1f", rate-1.0)
	}
}
