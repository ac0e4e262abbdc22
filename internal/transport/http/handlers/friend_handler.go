package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/ikovic/relay/internal/service"
	"github.com/ikovic/relay/internal/transport/http/middleware"
	"github.com/rs/zerolog"
)

type FriendHandler struct {
	friendService *service.FriendService
	logger        zerolog.Logger
}

func NewFriendHandler(friendService *service.FriendService, logger zerolog.Logger) *FriendHandler {
	return &FriendHandler{friendService: friendService, logger: logger}
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("list friends failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"friends": friends})
}

func (h *FriendHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if input.Email == "" {
		writeError(w, http.StatusBadRequest, "MISSING_EMAIL", "Email is required to add a friend")
		return
	}

	friend, err := h.friendService.AddFriend(r.Context(), userID, input.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "No user with that email")
		case errors.Is(err, service.ErrCannotFriendSelf):
			writeError(w, http.StatusBadRequest, "CANNOT_FRIEND_SELF", "Cannot add yourself as a friend")
		case errors.Is(err, service.ErrAlreadyFriends):
			writeError(w, http.StatusConflict, "ALREADY_FRIENDS", "Friend already added")
		default:
			h.logger.Error().Err(err).Msg("add friend failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, friend)
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	friendID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid friend ID")
		return
	}

	if err := h.friendService.RemoveFriend(r.Context(), userID, friendID); err != nil {
		if errors.Is(err, service.ErrFriendshipNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Friendship not found")
		} else {
			h.logger.Error().Err(err).Msg("remove friend failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
