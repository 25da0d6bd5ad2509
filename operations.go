package main

import (
	"net/http"
	"sort"
)

type opKind int

const (
	kindList opKind = iota
	kindGet
	kindCreate
	kindUpdate
	kindDelete
	kindSetStatus
	kindSiteInfo
	kindSearch
	kindFetch
)

func (k opKind) String() string {
	switch k {
	case kindList:
		return "list"
	case kindGet:
		return "get"
	case kindCreate:
		return "create"
	case kindUpdate:
		return "update"
	case kindDelete:
		return "delete"
	case kindSetStatus:
		return "set-status"
	case kindSiteInfo:
		return "site-info"
	case kindSearch:
		return "search"
	case kindFetch:
		return "fetch"
	default:
		return "unknown"
	}
}

func (k opKind) readOnly() bool {
	switch k {
	case kindList, kindGet, kindSiteInfo, kindSearch, kindFetch:
		return true
	}
	return false
}

type argType int

const (
	argString argType = iota
	argInt
	argBool
	argIntList
)

// argPlace says where a bound argument ends up in the upstream request.
type argPlace int

const (
	inBody argPlace = iota
	inQuery
	inPath
	inControl
)

type Argument struct {
	Name        string
	Type        argType
	Place       argPlace
	Param       string
	Required    bool
	Default     any
	Description string
	Enum        []string
	Min         int
	Max         int
}

func (a Argument) param() string {
	if a.Param != "" {
		return a.Param
	}
	return a.Name
}

type resource struct {
	Singular   string
	Plural     string
	Collection string
	IDArg      string
	Key        string
	Term       bool
	Summary    shapeFunc
	Detail     shapeFunc
}

func (r *resource) collectionPath() string { return restPrefix + "/" + r.Collection }

func (r *resource) itemPath() string { return r.collectionPath() + "/{" + r.IDArg + "}" }

type Operation struct {
	Name         string
	Title        string
	Description  string
	Kind         opKind
	Method       string
	Path         string
	Resource     *resource
	Args         []Argument
	TargetStatus string
	StatusVerb   string
}

var (
	postsResource = &resource{
		Singular: "Post", Plural: "posts", Collection: "posts", IDArg: "post_id", Key: "post",
		Summary: shapePostSummary, Detail: shapePostDetail,
	}
	pagesResource = &resource{
		Singular: "Page", Plural: "pages", Collection: "pages", IDArg: "page_id", Key: "page",
		Summary: shapePageSummary, Detail: shapePageDetail,
	}
	categoriesResource = &resource{
		Singular: "Category", Plural: "categories", Collection: "categories", IDArg: "category_id", Key: "category",
		Term: true, Summary: shapeTerm, Detail: shapeTerm,
	}
	tagsResource = &resource{
		Singular: "Tag", Plural: "tags", Collection: "tags", IDArg: "tag_id", Key: "tag",
		Term: true, Summary: shapeTerm, Detail: shapeTerm,
	}
	mediaResource = &resource{
		Singular: "Media item", Plural: "media items", Collection: "media", IDArg: "media_id", Key: "media",
		Summary: shapeMedia, Detail: shapeMedia,
	}
	usersResource = &resource{
		Singular: "User", Plural: "users", Collection: "users", IDArg: "user_id", Key: "user",
		Summary: shapeUser, Detail: shapeUser,
	}
	commentsResource = &resource{
		Singular: "Comment", Plural: "comments", Collection: "comments", IDArg: "comment_id", Key: "comment",
		Summary: shapeComment, Detail: shapeComment,
	}
)

var postStatuses = []string{"publish", "draft", "pending", "private", "future"}

func pathID(r *resource) Argument {
	return Argument{Name: r.IDArg, Type: argInt, Place: inPath, Required: true, Description: r.Singular + " ID"}
}

func pagingArgs(perPage int) []Argument {
	return []Argument{
		{Name: "per_page", Type: argInt, Place: inQuery, Default: perPage, Min: 1, Max: 100, Description: "Items per page (max 100)"},
		{Name: "page", Type: argInt, Place: inQuery, Default: 1, Min: 1, Description: "Page number"},
	}
}

func searchArg(noun string) Argument {
	return Argument{Name: "search", Type: argString, Place: inQuery, Description: "Search " + noun}
}

func forceArg() Argument {
	return Argument{Name: "force", Type: argBool, Place: inQuery, Default: true, Description: "Delete permanently instead of moving to trash"}
}

func listOp(name, title, description string, r *resource, extra ...Argument) *Operation {
	return &Operation{
		Name: name, Title: title, Description: description, Kind: kindList,
		Method: http.MethodGet, Path: r.collectionPath(), Resource: r, Args: extra,
	}
}

func getOp(name, title string, r *resource) *Operation {
	return &Operation{
		Name: name, Title: title, Kind: kindGet, Method: http.MethodGet, Path: r.itemPath(), Resource: r,
		Description: "Get a single " + r.Key + " by ID or slug",
		Args: []Argument{
			{Name: r.IDArg, Type: argInt, Place: inPath, Description: r.Singular + " ID"},
			{Name: "slug", Type: argString, Place: inControl, Description: r.Singular + " slug"},
		},
	}
}

func deleteOp(name, title string, r *resource) *Operation {
	return &Operation{
		Name: name, Title: title, Kind: kindDelete, Method: http.MethodDelete, Path: r.itemPath(), Resource: r,
		Description: "Delete a " + r.Key + " (permanently by default)",
		Args:        []Argument{pathID(r), forceArg()},
	}
}

func statusOp(name, title, description string, r *resource, target, verb string) *Operation {
	return &Operation{
		Name: name, Title: title, Description: description, Kind: kindSetStatus,
		Method: http.MethodPost, Path: r.itemPath(), Resource: r,
		Args: []Argument{pathID(r)}, TargetStatus: target, StatusVerb: verb,
	}
}

func concatArgs(groups ...[]Argument) []Argument {
	var out []Argument
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// defaultOperations returns the full, fixed operation catalog.
func defaultOperations() []*Operation {
	return []*Operation{
		// posts
		listOp("get_posts", "List posts", "Get a list of posts with optional search and status filter", postsResource,
			concatArgs(pagingArgs(10), []Argument{
				{Name: "status", Type: argString, Place: inQuery, Default: "publish", Enum: append(postStatuses, "any"), Description: "Post status filter"},
				searchArg("posts"),
			})...),
		getOp("get_post", "Get post", postsResource),
		{
			Name: "create_post", Title: "Create post", Description: "Create a new post",
			Kind: kindCreate, Method: http.MethodPost, Path: postsResource.collectionPath(), Resource: postsResource,
			Args: []Argument{
				{Name: "title", Type: argString, Required: true, Description: "Post title"},
				{Name: "content", Type: argString, Required: true, Description: "Post content (HTML allowed)"},
				{Name: "excerpt", Type: argString, Default: "", Description: "Post excerpt"},
				{Name: "status", Type: argString, Default: "publish", Enum: postStatuses, Description: "Post status"},
				{Name: "categories", Type: argIntList, Description: "Category IDs"},
				{Name: "tags", Type: argIntList, Description: "Tag IDs"},
			},
		},
		{
			Name: "update_post", Title: "Update post", Description: "Update an existing post; only supplied fields change",
			Kind: kindUpdate, Method: http.MethodPost, Path: postsResource.itemPath(), Resource: postsResource,
			Args: []Argument{
				pathID(postsResource),
				{Name: "title", Type: argString, Description: "New title"},
				{Name: "content", Type: argString, Description: "New content"},
				{Name: "excerpt", Type: argString, Description: "New excerpt"},
				{Name: "status", Type: argString, Enum: postStatuses, Description: "New status"},
				{Name: "categories", Type: argIntList, Description: "Category IDs"},
				{Name: "tags", Type: argIntList, Description: "Tag IDs"},
			},
		},
		deleteOp("delete_post", "Delete post", postsResource),
		statusOp("publish_post", "Publish post", "Publish a draft post", postsResource, "publish", "published"),
		statusOp("unpublish_post", "Unpublish post", "Move a post back to draft", postsResource, "draft", "moved to draft"),

		// pages
		listOp("get_pages", "List pages", "Get a list of pages", pagesResource,
			concatArgs(pagingArgs(10), []Argument{
				{Name: "status", Type: argString, Place: inQuery, Default: "publish", Enum: append(postStatuses, "any"), Description: "Page status filter"},
				{Name: "parent", Type: argInt, Place: inQuery, Description: "Only children of this page ID"},
				searchArg("pages"),
			})...),
		getOp("get_page", "Get page", pagesResource),
		{
			Name: "create_page", Title: "Create page", Description: "Create a new page",
			Kind: kindCreate, Method: http.MethodPost, Path: pagesResource.collectionPath(), Resource: pagesResource,
			Args: []Argument{
				{Name: "title", Type: argString, Required: true, Description: "Page title"},
				{Name: "content", Type: argString, Required: true, Description: "Page content (HTML allowed)"},
				{Name: "status", Type: argString, Default: "publish", Enum: postStatuses, Description: "Page status"},
				{Name: "parent", Type: argInt, Default: 0, Description: "Parent page ID"},
			},
		},
		{
			Name: "update_page", Title: "Update page", Description: "Update an existing page; only supplied fields change",
			Kind: kindUpdate, Method: http.MethodPost, Path: pagesResource.itemPath(), Resource: pagesResource,
			Args: []Argument{
				pathID(pagesResource),
				{Name: "title", Type: argString, Description: "New title"},
				{Name: "content", Type: argString, Description: "New content"},
				{Name: "status", Type: argString, Enum: postStatuses, Description: "New status"},
				{Name: "parent", Type: argInt, Description: "New parent page ID"},
			},
		},
		deleteOp("delete_page", "Delete page", pagesResource),

		// taxonomies
		listOp("get_categories", "List categories", "Get all categories", categoriesResource,
			concatArgs(pagingArgs(100), []Argument{searchArg("categories")})...),
		{
			Name: "create_category", Title: "Create category", Description: "Create a new category",
			Kind: kindCreate, Method: http.MethodPost, Path: categoriesResource.collectionPath(), Resource: categoriesResource,
			Args: []Argument{
				{Name: "name", Type: argString, Required: true, Description: "Category name"},
				{Name: "description", Type: argString, Default: "", Description: "Category description"},
				{Name: "parent", Type: argInt, Default: 0, Description: "Parent category ID"},
			},
		},
		deleteOp("delete_category", "Delete category", categoriesResource),
		listOp("get_tags", "List tags", "Get all tags", tagsResource,
			concatArgs(pagingArgs(100), []Argument{searchArg("tags")})...),
		{
			Name: "create_tag", Title: "Create tag", Description: "Create a new tag",
			Kind: kindCreate, Method: http.MethodPost, Path: tagsResource.collectionPath(), Resource: tagsResource,
			Args: []Argument{
				{Name: "name", Type: argString, Required: true, Description: "Tag name"},
				{Name: "description", Type: argString, Default: "", Description: "Tag description"},
			},
		},
		deleteOp("delete_tag", "Delete tag", tagsResource),

		// media, users
		listOp("get_media", "List media", "Get media library items", mediaResource,
			concatArgs(pagingArgs(10), []Argument{
				{Name: "media_type", Type: argString, Place: inQuery, Enum: []string{"image", "video", "audio", "application"}, Description: "Media type filter"},
				searchArg("media"),
			})...),
		listOp("get_users", "List users", "Get site users", usersResource,
			concatArgs(pagingArgs(10), []Argument{searchArg("users")})...),

		// comments
		listOp("get_comments", "List comments", "Get comments, optionally for one post", commentsResource,
			concatArgs([]Argument{
				{Name: "post_id", Type: argInt, Place: inQuery, Param: "post", Description: "Only comments on this post"},
				{Name: "status", Type: argString, Place: inQuery, Description: "Comment status filter (approve, hold, spam, trash)"},
			}, pagingArgs(10))...),
		statusOp("approve_comment", "Approve comment", "Approve a pending comment", commentsResource, "approved", "approved"),
		deleteOp("delete_comment", "Delete comment", commentsResource),

		// site
		{
			Name: "get_site_info", Title: "Site info", Description: "Get WordPress site information",
			Kind: kindSiteInfo, Method: http.MethodGet, Path: "/wp-json",
		},

		// connector tools
		{
			Name: facadeSearchToolName, Title: "Search", Description: "Search posts and pages; results carry ids usable with fetch",
			Kind: kindSearch, Method: http.MethodGet, Path: restPrefix + "/search",
			Args: concatArgs([]Argument{
				{Name: "query", Type: argString, Place: inQuery, Param: "search", Required: true, Description: "Search query"},
			}, pagingArgs(10)),
		},
		{
			Name: facadeFetchToolName, Title: "Fetch", Description: "Fetch the full text of a post or page by search result id",
			Kind: kindFetch, Method: http.MethodGet,
			Args: []Argument{
				{Name: "id", Type: argString, Place: inControl, Required: true, Description: "Document id such as post:123 or page:45"},
			},
		},
	}
}

func sortedOperationNames(ops map[string]*Operation) []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
