package controllers

import (
	"net/http"

	"inkwell/app/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// BlogController handles HTTP requests for blog posts
type BlogController struct {
	service   *services.BlogService
	responder Responder
}

func NewBlogController(service *services.BlogService) *BlogController {
	logger := log.With().Str("handlerName", "blogController").Logger()
	return &BlogController{
		service:   service,
		responder: NewResponder(logger),
	}
}

// Index handles GET /api/blogs
func (bc *BlogController) Index(w http.ResponseWriter, r *http.Request) {
	blogs, err := bc.service.List(r.Context())
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}
	bc.responder.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(blogs),
		"blogs": blogs,
	})
}

// Mine handles GET /api/blogs/user/my-blogs
func (bc *BlogController) Mine(w http.ResponseWriter, r *http.Request) {
	userID, err := requester(r)
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}

	blogs, err := bc.service.ListMine(r.Context(), userID)
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}
	bc.responder.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(blogs),
		"blogs": blogs,
	})
}

// Show handles GET /api/blogs/{id}. Each call counts as a view.
func (bc *BlogController) Show(w http.ResponseWriter, r *http.Request) {
	blog, err := bc.service.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}
	bc.responder.WriteJSON(w, http.StatusOK, map[string]interface{}{"blog": blog})
}

// Create handles POST /api/blogs
func (bc *BlogController) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := requester(r)
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}

	var in services.BlogInput
	if err := decode(r, &in); err != nil {
		bc.responder.WriteError(w, err)
		return
	}

	blog, err := bc.service.Create(r.Context(), userID, in)
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}
	bc.responder.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Blog created successfully",
		"blog":    blog,
	})
}

// Update handles PUT /api/blogs/{id}
func (bc *BlogController) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := requester(r)
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}

	var in services.BlogInput
	if err := decode(r, &in); err != nil {
		bc.responder.WriteError(w, err)
		return
	}

	blog, err := bc.service.Update(r.Context(), mux.Vars(r)["id"], userID, in)
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}
	bc.responder.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Blog updated successfully",
		"blog":    blog,
	})
}

// Delete handles DELETE /api/blogs/{id}
func (bc *BlogController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := requester(r)
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}

	if err := bc.service.Delete(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		bc.responder.WriteError(w, err)
		return
	}
	bc.responder.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Blog deleted successfully",
	})
}

// Like handles PUT /api/blogs/{id}/like
func (bc *BlogController) Like(w http.ResponseWriter, r *http.Request) {
	userID, err := requester(r)
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}

	res, err := bc.service.ToggleLike(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}
	bc.responder.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"likes":   res.Likes,
		"isLiked": res.IsLiked,
	})
}

type commentInput struct {
	Text string `json:"text"`
}

// AddComment handles POST /api/blogs/{id}/comment
func (bc *BlogController) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := requester(r)
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}

	var in commentInput
	if err := decode(r, &in); err != nil {
		bc.responder.WriteError(w, err)
		return
	}

	comments, err := bc.service.AddComment(r.Context(), mux.Vars(r)["id"], userID, in.Text)
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}
	bc.responder.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Comment added successfully",
		"comments": comments,
	})
}

// DeleteComment handles DELETE /api/blogs/{id}/comment/{commentId}
func (bc *BlogController) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, err := requester(r)
	if err != nil {
		bc.responder.WriteError(w, err)
		return
	}

	vars := mux.Vars(r)
	if err := bc.service.DeleteComment(r.Context(), vars["id"], vars["commentId"], userID); err != nil {
		bc.responder.WriteError(w, err)
		return
	}
	bc.responder.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Comment deleted successfully",
	})
}
