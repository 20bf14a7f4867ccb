package app

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"github.com/yourusername/appcatalog/internal/domain"
)

const (
	feedCandidates  = 16
	feedItems       = 10
	feedScreenshots = 3
	screenshotSize  = "624x351"
)

// FeedBuilder renders RSS feeds of recently updated and newly added apps
type FeedBuilder struct {
	store   domain.Store
	siteURL string
}

// NewFeedBuilder creates a new feed builder
func NewFeedBuilder(store domain.Store, config *domain.FeedsConfig) *FeedBuilder {
	return &FeedBuilder{
		store:   store,
		siteURL: strings.TrimSuffix(config.SiteURL, "/"),
	}
}

type feedSpec struct {
	key         string
	title       string
	description string
	link        string
}

// RecentlyUpdated renders the recently updated apps feed of a channel
func (b *FeedBuilder) RecentlyUpdated(ctx context.Context, channel domain.Channel) (string, error) {
	return b.render(ctx, feedChannel(channel), feedSpec{
		key:         recentKey(feedChannel(channel)),
		title:       "Recently updated applications",
		description: "Recently updated applications published in the catalog",
		link:        b.siteURL + "/apps/collection/recently-updated",
	})
}

// NewApps renders the recently added apps feed of a channel
func (b *FeedBuilder) NewApps(ctx context.Context, channel domain.Channel) (string, error) {
	return b.render(ctx, feedChannel(channel), feedSpec{
		key:         newAppsKey(feedChannel(channel)),
		title:       "Recently added applications",
		description: "Applications recently published in the catalog",
		link:        b.siteURL + "/apps/collection/new",
	})
}

// feeds are per channel; the combined view uses stable
func feedChannel(channel domain.Channel) domain.Channel {
	if channel == domain.ChannelBeta {
		return domain.ChannelBeta
	}
	return domain.ChannelStable
}

type feedEntry struct {
	rec       *domain.AppRecord
	timestamp int64
}

func (b *FeedBuilder) render(ctx context.Context, channel domain.Channel, spec feedSpec) (string, error) {
	var entries []feedEntry
	err := b.store.View(ctx, func(kv domain.KV) error {
		// over-fetch: some ranked ids have no record in this channel
		ranked, err := kv.ZRevRange(ctx, spec.key, 0, feedCandidates-1)
		if err != nil {
			return err
		}
		for _, m := range ranked {
			var presence domain.ChannelPresence
			found, err := getJSON(ctx, kv, appKey(m.Member), &presence)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			if rec := presence.Record(channel); rec != nil {
				entries = append(entries, feedEntry{rec: rec, timestamp: int64(m.Score)})
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(entries) > feedItems {
		entries = entries[:feedItems]
	}

	feed := &feeds.Feed{
		Title:       spec.title,
		Link:        &feeds.Link{Href: spec.link},
		Description: spec.description,
	}
	// oldest first
	for i := len(entries) - 1; i >= 0; i-- {
		rec := entries[i].rec
		if rec.Name == "" {
			continue
		}
		feed.Add(&feeds.Item{
			Title:       rec.Name,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/apps/details/%s", b.siteURL, rec.ID)},
			Id:          rec.ID,
			Description: itemDescription(rec),
			Created:     time.Unix(entries[i].timestamp, 0).UTC(),
		})
	}

	rss := (&feeds.Rss{Feed: feed}).RssFeed()
	rss.Language = "en"
	return feeds.ToXML(rss)
}

func itemDescription(rec *domain.AppRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<img src="%s">`, html.EscapeString(rec.Icon))
	fmt.Fprintf(&sb, "<p>%s</p>", html.EscapeString(rec.Summary))
	// description is appstream markup already
	fmt.Fprintf(&sb, "<p>%s</p>", rec.Description)
	sb.WriteString("<h3>Additional information:</h3><ul>")
	if rec.DeveloperName != "" {
		fmt.Fprintf(&sb, "<li>Developer: %s</li>", html.EscapeString(rec.DeveloperName))
	}
	if rec.License != "" {
		fmt.Fprintf(&sb, "<li>License: %s</li>", html.EscapeString(rec.License))
	}
	if latest, ok := rec.LatestRelease(); ok && latest.Version != "" {
		fmt.Fprintf(&sb, "<li>Version: %s</li>", html.EscapeString(latest.Version))
	}
	sb.WriteString("</ul>")

	shots := rec.Screenshots
	if len(shots) > feedScreenshots {
		shots = shots[:feedScreenshots]
	}
	for _, shot := range shots {
		if image := shot[screenshotSize]; image != "" {
			fmt.Fprintf(&sb, `<img src="%s">`, html.EscapeString(image))
		}
	}
	return sb.String()
}
