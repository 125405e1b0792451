package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssDoc = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Neighborhood News</title>
    <link>http://example.com</link>
    <description>local updates</description>
    <item>
      <guid>tag:example.com,2013:101</guid>
      <title>Cleanup day</title>
      <link>http://example.com/cleanup</link>
      <description>&lt;p&gt;Bring  gloves &amp;amp; bags&lt;/p&gt;</description>
      <pubDate>Mon, 02 Sep 2013 10:00:00 -0400</pubDate>
    </item>
    <item>
      <title>No guid here</title>
      <link>http://example.com/noguid</link>
      <description>plain text</description>
      <pubDate>not a date</pubDate>
    </item>
  </channel>
</rss>`

const atomDoc = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Meetings</title>
  <entry>
    <id>urn:uuid:abc-123</id>
    <title>Planning meeting</title>
    <link rel="alternate" href="http://example.com/meeting"/>
    <link rel="enclosure" href="http://example.com/ics"/>
    <summary>Agenda attached</summary>
    <published>2013-09-02T10:00:00Z</published>
  </entry>
</feed>`

func TestParseRSS(t *testing.T) {
	items, err := Parse([]byte(rssDoc))
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "tag:example.com,2013:101", first.GUID)
	assert.Equal(t, "Cleanup day", first.Title)
	assert.Equal(t, "http://example.com/cleanup", first.Link)
	assert.Equal(t, "Bring gloves & bags", first.Summary)
	assert.Equal(t, time.Date(2013, 9, 2, 10, 0, 0, 0, time.FixedZone("", -4*3600)).Unix(), first.PublishedAt.Unix())

	// Missing guid stays empty here; the aggregator falls back to the link.
	second := items[1]
	assert.Empty(t, second.GUID)
	// Unparseable dates fall back to "now".
	assert.WithinDuration(t, time.Now(), second.PublishedAt, time.Minute)
}

func TestParseAtom(t *testing.T) {
	items, err := Parse([]byte(atomDoc))
	require.NoError(t, err)
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, "urn:uuid:abc-123", it.GUID)
	assert.Equal(t, "Planning meeting", it.Title)
	assert.Equal(t, "http://example.com/meeting", it.Link)
	assert.Equal(t, "Agenda attached", it.Summary)
	assert.Equal(t, time.Date(2013, 9, 2, 10, 0, 0, 0, time.UTC).Unix(), it.PublishedAt.Unix())
}

func TestParseRejectsUnknownDocument(t *testing.T) {
	_, err := Parse([]byte(`<html><body>not a feed</body></html>`))
	require.Error(t, err)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "plain", StripHTML("plain"))
	assert.Equal(t, "a b c", StripHTML("<p>a</p><p>b <b>c</b></p>"))
	assert.Equal(t, "", StripHTML("   "))
	assert.Equal(t, "kept", StripHTML("<script>alert(1)</script>kept"))
}
