package handlers

import (
	"strings"
	"testing"
)

func TestXMLEscape(t *testing.T) {
	in := `Tom & Jerry <say> "hi" 'there'`
	want := `Tom &amp; Jerry &lt;say&gt; &quot;hi&quot; &apos;there&apos;`
	if got := xmlEscape(in); got != want {
		t.Fatalf("xmlEscape(%q) = %q, want %q", in, got, want)
	}
}

func TestBuildConnectStreamXML_EscapesParameters(t *testing.T) {
	xml := buildConnectStreamXML("wss://bridge.example.com/media", map[string]string{
		"callerPhone": `+1 "555" <home>`,
	})
	if !strings.Contains(xml, "&quot;555&quot;") || !strings.Contains(xml, "&lt;home&gt;") {
		t.Fatalf("expected escaped parameter value, got %s", xml)
	}
	if !strings.Contains(xml, `<Stream url="wss://bridge.example.com/media">`) {
		t.Fatalf("expected stream url element, got %s", xml)
	}
}

func TestBuildBlindTransferXML(t *testing.T) {
	xml := buildBlindTransferXML("+15551234567", "https://ops.example.com/status?x=1&y=2")
	if !strings.Contains(xml, "<Number>+15551234567</Number>") {
		t.Fatalf("expected number element, got %s", xml)
	}
	if !strings.Contains(xml, "&amp;y=2") {
		t.Fatalf("expected escaped status callback url, got %s", xml)
	}
}

func TestBuildHoldMusicXML(t *testing.T) {
	xml := buildHoldMusicXML("https://cdn.example.com/hold.mp3", 3)
	if !strings.Contains(xml, `loop="3"`) || !strings.Contains(xml, "hold.mp3") {
		t.Fatalf("expected play element with loop count, got %s", xml)
	}
}

func TestIsLocalHost(t *testing.T) {
	cases := map[string]bool{
		"localhost:8080":  true,
		"127.0.0.1:8080":  true,
		"192.168.1.5:443": true,
		"bridge.example.com": false,
	}
	for host, want := range cases {
		if got := isLocalHost(host); got != want {
			t.Errorf("isLocalHost(%q) = %v, want %v", host, got, want)
		}
	}
}
