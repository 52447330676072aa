package pages

import (
	"testing"

	"partygame/internal/testhelpers"
)

func TestHostDashboard(t *testing.T) {
	t.Run("renders dashboard structure", func(t *testing.T) {
		testhelpers.Render(t, HostDashboard("AB12", "fibbing-it")).
			HasElementWithID("host-dashboard").
			HasElementWithID("room-code").
			HasElementWithID("join-qr").
			HasElementWithID("phase").
			HasElementWithID("time-left").
			HasElementWithID("players").
			HasDatastarAttribute("on-load", "@get(&#39;/rooms/AB12/host/stream&#39;)").
			HasDatastarAttribute("attr-src", "$qrCode").
			Contains(`id="room-code">AB12<`).
			Contains("fibbing-it").
			Contains(datastarScript)
	})

	t.Run("escapes room data", func(t *testing.T) {
		testhelpers.Render(t, HostDashboard("AB12", "<script>")).
			NotContains("<p class=\"game-type\"><script>").
			Contains("&lt;script&gt;")
	})

	t.Run("escapes the stream url attribute", func(t *testing.T) {
		testhelpers.Render(t, HostDashboard(`A"B`, "bluff-trivia")).
			NotContains(`data-on-load="@get('/rooms/A"B`).
			Contains("/rooms/A&#34;B/host/stream")
	})
}
