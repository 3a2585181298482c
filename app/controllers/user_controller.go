package controllers

import (
	"net/http"

	"inkwell/app/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// UserController handles profile and follow requests
type UserController struct {
	service   *services.UserService
	responder Responder
}

func NewUserController(service *services.UserService) *UserController {
	logger := log.With().Str("handlerName", "userController").Logger()
	return &UserController{
		service:   service,
		responder: NewResponder(logger),
	}
}

// Show handles GET /api/users/{id}
func (uc *UserController) Show(w http.ResponseWriter, r *http.Request) {
	profile, err := uc.service.GetProfile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		uc.responder.WriteError(w, err)
		return
	}
	uc.responder.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":  profile.User,
		"blogs": profile.Blogs,
	})
}

// UpdateProfile handles PUT /api/users/profile
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := requester(r)
	if err != nil {
		uc.responder.WriteError(w, err)
		return
	}

	var in services.ProfileInput
	if err := decode(r, &in); err != nil {
		uc.responder.WriteError(w, err)
		return
	}

	user, err := uc.service.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		uc.responder.WriteError(w, err)
		return
	}
	uc.responder.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// Follow handles PUT /api/users/{id}/follow
func (uc *UserController) Follow(w http.ResponseWriter, r *http.Request) {
	userID, err := requester(r)
	if err != nil {
		uc.responder.WriteError(w, err)
		return
	}

	res, err := uc.service.ToggleFollow(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		uc.responder.WriteError(w, err)
		return
	}
	uc.responder.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"isFollowing":    res.IsFollowing,
		"followersCount": res.FollowersCount,
	})
}
