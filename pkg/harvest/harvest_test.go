package harvest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mwhite/vocabfill/pkg/vocab"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Disaster Relief Efforts Continue</title></head>
<body>
<article>
<h1>Disaster Relief Efforts Continue</h1>
<p>International aid arrived in the region early on Monday, and volunteers
worked through the night to distribute supplies to thousands of displaced
families. Officials said the response was swift, albeit complicated by the
damaged roads leading into the valley.</p>
<p>Relief agencies will allocate additional funds next week. The annual
budget review, which normally takes place in June, has been moved forward
so that planners can anticipate further needs before winter arrives.</p>
<p>Short note. Residents said they appreciate the help they have received
so far, and many have begun to rebuild in the area around the river.</p>
</article>
</body>
</html>`

func newArticleServer(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt64(hits, 1)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articleHTML))
	}))
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache("", true)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestSplitSentences(t *testing.T) {
	testCases := map[string]struct {
		text     string
		expected []string
	}{
		"simple": {
			text:     "The aid arrived quickly. It helped many families!",
			expected: []string{"The aid arrived quickly.", "It helped many families!"},
		},
		"drops fragments": {
			text:     "Short note. This sentence is long enough to keep.",
			expected: []string{"This sentence is long enough to keep."},
		},
		"collapses whitespace": {
			text:     "The   response was\tswift, albeit complicated.",
			expected: []string{"The response was swift, albeit complicated."},
		},
		"quoted ending": {
			text:     `She said "we appreciate the help." More aid is on the way.`,
			expected: []string{`She said "we appreciate the help."`, "More aid is on the way."},
		},
		"paragraph breaks": {
			text:     "First paragraph ends here\nAnd the second one continues below.",
			expected: []string{"First paragraph ends here", "And the second one continues below."},
		},
	}
	for name := range testCases {
		tc := testCases[name]
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SplitSentences(tc.text))
		})
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)

	_, ok, err := cache.GetArticle("https://example.com/a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.PutArticle("https://example.com/a", "some text"))

	text, ok, err := cache.GetArticle("https://example.com/a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "some text", text)
}

func TestFetcherUsesCache(t *testing.T) {
	var hits int64
	srv := newArticleServer(t, &hits)
	defer srv.Close()

	fetcher := NewFetcher(newTestCache(t), zaptest.NewLogger(t))

	first, err := fetcher.FetchText(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, first, "International aid")

	second, err := fetcher.FetchText(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits), "second fetch must come from the cache")
}

func TestFetcherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	fetcher := NewFetcher(nil, zaptest.NewLogger(t))
	_, err := fetcher.FetchText(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestHarvesterFillsExamples(t *testing.T) {
	srv := newArticleServer(t, nil)
	defer srv.Close()

	doc := &vocab.Document{Words: []vocab.Record{
		{ID: 21, Word: "aid", Definition: "help", PartOfSpeech: "noun",
			Synonyms: []string{"help"}, Difficulty: "basic"},
		{ID: 22, Word: "albeit", Definition: "although", PartOfSpeech: "conjunction",
			Synonyms: []string{"although"}, Difficulty: "advanced",
			Examples: []string{"Existing example, albeit a synthetic one."}},
		{ID: 23, Word: "allocate"}, // unfilled: must stay untouched
		{ID: 24, Word: "appreciate", Definition: "to value", PartOfSpeech: "verb",
			Synonyms: []string{"value"}, Difficulty: "basic",
			Examples: []string{"one", "two"}}, // already at the cap
	}}

	h := NewHarvester(NewFetcher(newTestCache(t), zaptest.NewLogger(t)), zaptest.NewLogger(t))
	filled, err := h.Run(context.Background(), doc, []string{srv.URL})
	require.NoError(t, err)
	assert.Equal(t, 2, filled)

	aid := doc.Words[0]
	require.NotEmpty(t, aid.Examples)
	assert.LessOrEqual(t, len(aid.Examples), DefaultMaxExamples)
	for _, ex := range aid.Examples {
		assert.Regexp(t, `(?i)\baid\b`, ex)
	}

	albeit := doc.Words[1]
	assert.Len(t, albeit.Examples, 2)
	assert.Equal(t, "Existing example, albeit a synthetic one.", albeit.Examples[0])

	assert.Empty(t, doc.Words[2].Examples, "unfilled record must not gain examples")
	assert.Equal(t, []string{"one", "two"}, doc.Words[3].Examples)
}

func TestHarvesterAllFetchesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	h := NewHarvester(NewFetcher(nil, zaptest.NewLogger(t)), zaptest.NewLogger(t))
	doc := &vocab.Document{Words: []vocab.Record{{ID: 1, Word: "aid", Definition: "help"}}}
	_, err := h.Run(context.Background(), doc, []string{srv.URL})
	assert.Error(t, err)
}

func TestHarvesterPartialFailure(t *testing.T) {
	good := newArticleServer(t, nil)
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer bad.Close()

	h := NewHarvester(NewFetcher(newTestCache(t), zaptest.NewLogger(t)), zaptest.NewLogger(t))
	doc := &vocab.Document{Words: []vocab.Record{
		{ID: 21, Word: "aid", Definition: "help", PartOfSpeech: "noun",
			Synonyms: []string{"help"}, Difficulty: "basic"},
	}}
	filled, err := h.Run(context.Background(), doc, []string{bad.URL, good.URL})
	require.NoError(t, err, "one good source is enough")
	assert.Equal(t, 1, filled)
}
