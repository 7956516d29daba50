package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
)

func TestTextIconETags(t *testing.T) {
	r, _ := setupRouter(testConfig())
	ts := httptest.NewServer(r)
	defer ts.Close()

	params := url.Values{
		"text":       {"OK"},
		"Background": {"circle"},
		"ftype":      {"Arial"},
		"fcolor":     {"#000"},
		"bcolor":     {"white"},
	}
	target := ts.URL + "/generate/text?" + params.Encode()

	res, err := http.Get(target)
	if err != nil {
		t.Fatal(err)
	}
	etag := res.Header.Get("ETag")
	res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %v", res.Status)
	}
	if etag == "" {
		t.Fatal("Expected ETag header, got none")
	}

	t.Run("Matching ETag", func(t *testing.T) {
		req, _ := http.NewRequest("GET", target, nil)
		req.Header.Set("If-None-Match", etag)
		res2, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer res2.Body.Close()

		if res2.StatusCode != http.StatusNotModified {
			t.Errorf("Expected 304 Not Modified, got %v", res2.Status)
		}
	})

	t.Run("Equivalent parameters share an ETag", func(t *testing.T) {
		same := url.Values{
			"text":       {"OK"},
			"Background": {"CIRCLE"},
			"ftype":      {"arial"},
			"fcolor":     {"black"},
			"bcolor":     {"#ffffff"},
		}
		req, _ := http.NewRequest("GET", ts.URL+"/generate/text?"+same.Encode(), nil)
		req.Header.Set("If-None-Match", etag)
		res2, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer res2.Body.Close()

		if res2.StatusCode != http.StatusNotModified {
			t.Errorf("Expected 304 Not Modified, got %v", res2.Status)
		}
	})

	t.Run("Different parameters", func(t *testing.T) {
		other := url.Values{"text": {"NO"}}
		req, _ := http.NewRequest("GET", ts.URL+"/generate/text?"+other.Encode(), nil)
		req.Header.Set("If-None-Match", etag)
		res2, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer res2.Body.Close()

		if res2.StatusCode != http.StatusOK {
			t.Errorf("Expected 200 OK, got %v", res2.Status)
		}
		if res2.Header.Get("ETag") == etag {
			t.Error("Expected a different ETag for different text")
		}
	})

	t.Run("Weak and listed ETags", func(t *testing.T) {
		for _, header := range []string{
			"W/" + etag,
			`"stale", ` + etag,
			`"stale",W/` + etag + ` , "other"`,
			"*",
		} {
			req, _ := http.NewRequest("GET", target, nil)
			req.Header.Set("If-None-Match", header)
			res2, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			res2.Body.Close()

			if res2.StatusCode != http.StatusNotModified {
				t.Errorf("If-None-Match %s: expected 304 Not Modified, got %v", header, res2.Status)
			}
		}
	})

	t.Run("Negative ETag Test", func(t *testing.T) {
		req, _ := http.NewRequest("GET", target, nil)
		req.Header.Set("If-None-Match", "wrong-etag")
		res2, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer res2.Body.Close()

		if res2.StatusCode != http.StatusOK {
			t.Errorf("Expected 200 OK for wrong ETag, got %v", res2.Status)
		}
	})

	t.Run("No ETag on errors", func(t *testing.T) {
		res2, err := http.Get(ts.URL + "/generate/text?text=OK&fcolor=notacolor")
		if err != nil {
			t.Fatal(err)
		}
		defer res2.Body.Close()

		if res2.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400, got %v", res2.Status)
		}
		if res2.Header.Get("ETag") != "" {
			t.Error("Expected no ETag on error response")
		}
	})
}

func TestTextIconETagFollowsFontRegistry(t *testing.T) {
	r, s := setupRouter(testConfig())
	ts := httptest.NewServer(r)
	defer ts.Close()

	target := ts.URL + "/generate/text?" + url.Values{"text": {"Aa"}, "ftype": {"Arial"}}.Encode()
	get := func(ifNoneMatch string) *http.Response {
		t.Helper()
		req, _ := http.NewRequest("GET", target, nil)
		if ifNoneMatch != "" {
			req.Header.Set("If-None-Match", ifNoneMatch)
		}
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		return res
	}

	first := get("")
	before := first.Header.Get("ETag")
	if first.StatusCode != http.StatusOK || before == "" {
		t.Fatalf("Expected 200 OK with an ETag, got %v %q", first.Status, before)
	}

	// arial.ttf arriving in the fonts directory changes what Arial renders with
	if err := s.gen.Renderer().Fonts().Register("arial", gomono.TTF); err != nil {
		t.Fatal(err)
	}

	second := get(before)
	if second.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK after the font changed, got %v", second.Status)
	}
	after := second.Header.Get("ETag")
	if after == "" || after == before {
		t.Errorf("Expected a new ETag after the font changed, got %q (was %q)", after, before)
	}

	if res := get(after); res.StatusCode != http.StatusNotModified {
		t.Errorf("Expected 304 Not Modified for the new ETag, got %v", res.Status)
	}
}

func TestETagMatches(t *testing.T) {
	const etag = `"abc"`
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{` "x" ,W/"abc" `, true},
		{"*", true},
		{`"abcd"`, false},
		{`abc`, false},
		{`"x", "y"`, false},
	}
	for _, tt := range tests {
		if got := etagMatches(tt.header, etag); got != tt.want {
			t.Errorf("etagMatches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
