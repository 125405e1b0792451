package feed

import (
	"encoding/xml"
	"errors"
	"strings"
	"time"

	"phillyrising/domain"
)

// Parse decodes an RSS 2.0 or Atom 1.0 document into fetched items.
// Summaries are stripped to plain text.
func Parse(body []byte) ([]domain.FetchedItem, error) {
	var probe struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal(body, &probe); err != nil {
		return nil, err
	}
	switch probe.XMLName.Local {
	case "rss":
		return parseRSS(body)
	case "feed":
		return parseAtom(body)
	default:
		return nil, errors.New("unrecognized feed document: " + probe.XMLName.Local)
	}
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02",
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}

func parseRSS(body []byte) ([]domain.FetchedItem, error) {
	var rf rssFeed
	if err := xml.Unmarshal(body, &rf); err != nil {
		return nil, err
	}
	items := make([]domain.FetchedItem, 0, len(rf.Channel.Item))
	for _, it := range rf.Channel.Item {
		items = append(items, domain.FetchedItem{
			GUID:        strings.TrimSpace(it.GUID),
			Title:       strings.TrimSpace(it.Title),
			Link:        strings.TrimSpace(it.Link),
			Summary:     StripHTML(it.Description),
			PublishedAt: parseDate(it.PubDate),
		})
	}
	return items, nil
}

func parseAtom(body []byte) ([]domain.FetchedItem, error) {
	var af atomFeed
	if err := xml.Unmarshal(body, &af); err != nil {
		return nil, err
	}
	items := make([]domain.FetchedItem, 0, len(af.Entry))
	for _, e := range af.Entry {
		link := ""
		for _, l := range e.Link {
			if l.Rel == "" || l.Rel == "alternate" {
				link = l.Href
				break
			}
		}
		summary := e.Summary
		if summary == "" {
			summary = e.Content
		}
		published := e.Published
		if published == "" {
			published = e.Updated
		}
		items = append(items, domain.FetchedItem{
			GUID:        strings.TrimSpace(e.ID),
			Title:       strings.TrimSpace(e.Title),
			Link:        strings.TrimSpace(link),
			Summary:     StripHTML(summary),
			PublishedAt: parseDate(published),
		})
	}
	return items, nil
}

type rssFeed struct {
	Channel struct {
		Title       string    `xml:"title"`
		Link        string    `xml:"link"`
		Description string    `xml:"description"`
		Item        []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	GUID        string `xml:"guid"`
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

type atomFeed struct {
	Entry []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string     `xml:"id"`
	Title     string     `xml:"title"`
	Summary   string     `xml:"summary"`
	Content   string     `xml:"content"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
	Link      []atomLink `xml:"link"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}
