package model

import (
	"time"
)

// PageType classifies a content source by the role it plays in the site.
type PageType int

const (
	Regular PageType = iota
	Post
	TagListing
	CategoryListing
)

func (t PageType) String() string {
	switch t {
	case Post:
		return "post"
	case TagListing:
		return "tag"
	case CategoryListing:
		return "category"
	default:
		return "regular"
	}
}

// ContentSource represents an on-disk content file for the duration of one bake pass.
type ContentSource struct {
	Path    string
	Type    PageType
	BlogKey string
	Date    time.Time
	// Key is the tag or category value of a listing page.
	Key string
}

// BlogPost is a blog post found while enumerating the posts directory.
type BlogPost struct {
	ContentSource
	Slug   string
	Header Header
}

// Header holds the front matter fields the baker cares about, plus the raw map for templates.
type Header struct {
	Title    string
	Tags     []string
	Category string
	Layout   string
	Format   string
	Params   map[string]interface{}
}

// HasTag reports whether the post carries the given tag.
func (p *BlogPost) HasTag(tag string) bool {
	for _, t := range p.Header.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// PostList is sorted newest first by the content enumerator.
type PostList []*BlogPost

// Tagged returns the posts carrying tag, preserving order.
func (l PostList) Tagged(tag string) PostList {
	var out PostList
	for _, p := range l {
		if p.HasTag(tag) {
			out = append(out, p)
		}
	}
	return out
}

// InCategory returns the posts filed under category, preserving order.
func (l PostList) InCategory(category string) PostList {
	var out PostList
	for _, p := range l {
		if p.Header.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// ByPath returns the posts whose source path is in paths, preserving order.
func (l PostList) ByPath(paths []string) PostList {
	want := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		want[p] = struct{}{}
	}
	var out PostList
	for _, p := range l {
		if _, ok := want[p.Path]; ok {
			out = append(out, p)
		}
	}
	return out
}
