package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"focusflow/internal/models"

	"github.com/google/uuid"
)

// PostItem represents a post in list views.
type PostItem struct {
	models.Post
	Created string
}

// PostsViewModel is the data passed to the post list template.
type PostsViewModel struct {
	Email string
	Posts []PostItem
}

// PostFormViewModel is the data passed to the create form template. The
// entered values survive a failed submission.
type PostFormViewModel struct {
	Title   string
	Content string
	Status  string
	Error   string
}

// Projects renders the authenticated user's posts, newest first.
func (h *Handlers) Projects(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	posts, err := h.db.ListPostsByUser(user.ID)
	if err != nil {
		log.Printf("ListPostsByUser error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "projects.html", PostsViewModel{
		Email: user.Email,
		Posts: postItems(posts),
	})
}

// CreatePostForm renders the form to create a new post.
func (h *Handlers) CreatePostForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "create.html", PostFormViewModel{Status: models.StatusDraft})
}

// CreatePost handles the creation of a new post. Validation runs before
// any database work; on any failure the form is re-rendered with the
// entered values intact.
func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	if err := r.ParseForm(); err != nil {
		h.render(w, r, "create.html", PostFormViewModel{Status: models.StatusDraft, Error: "Invalid form submission"})
		return
	}

	vm := PostFormViewModel{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: strings.TrimSpace(r.FormValue("content")),
		Status:  r.FormValue("status"),
	}
	if vm.Status != models.StatusPublished {
		vm.Status = models.StatusDraft
	}

	if vm.Title == "" || vm.Content == "" {
		vm.Error = "Title and content are required"
		h.render(w, r, "create.html", vm)
		return
	}

	if _, err := h.db.CreatePost(user.ID, vm.Title, vm.Content, vm.Status, makeSlug(vm.Title)); err != nil {
		log.Printf("CreatePost error: %v", err)
		vm.Error = "Could not save the post. Please try again."
		h.render(w, r, "create.html", vm)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Location", `{"path":"/projects", "target":"#content"}`)
		return
	}
	http.Redirect(w, r, "/projects", http.StatusFound)
}

// DeletePost removes a post owned by the authenticated user. The client
// removes the row from the list only after this responds with success.
func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	if err := h.db.DeletePost(id, user.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		}
		log.Printf("DeletePost error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// 200 with empty body; HTMX swaps the deleted row away.
	w.WriteHeader(http.StatusOK)
}

// BlogViewModel is the data passed to the public blog template.
type BlogViewModel struct {
	Author string
	Posts  []PostItem
}

// Blog renders a user's published posts. This route is public.
func (h *Handlers) Blog(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("userID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	author, err := h.db.GetUserByID(userID)
	if err != nil {
		http.Error(w, "Blog not found", http.StatusNotFound)
		return
	}

	posts, err := h.db.ListPublishedPostsByUser(userID)
	if err != nil {
		log.Printf("ListPublishedPostsByUser error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "blog.html", BlogViewModel{
		Author: displayName(author.Email),
		Posts:  postItems(posts),
	})
}

// PostViewModel is the data passed to the single post template.
type PostViewModel struct {
	Author string
	Post   PostItem
}

// PostView renders one published post by slug. This route is public;
// drafts are not served here.
func (h *Handlers) PostView(w http.ResponseWriter, r *http.Request) {
	post, err := h.db.GetPostBySlug(r.PathValue("slug"))
	if err != nil || post.Status != models.StatusPublished {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}

	author, err := h.db.GetUserByID(post.UserID)
	if err != nil {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "post.html", PostViewModel{
		Author: displayName(author.Email),
		Post:   PostItem{Post: *post, Created: post.CreatedAt.Format("Jan 02, 2006")},
	})
}

func postItems(posts []models.Post) []PostItem {
	items := make([]PostItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, PostItem{
			Post:    p,
			Created: p.CreatedAt.Format("Jan 02, 2006 15:04"),
		})
	}
	return items
}

// makeSlug derives a URL slug from a post title with a random suffix to
// keep slugs unique across users.
func makeSlug(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	suffix := uuid.NewString()[:8]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

func displayName(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
