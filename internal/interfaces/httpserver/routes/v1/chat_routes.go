package v1

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/chat-api/internal/interfaces/httpserver/handlers/chathandler"
)

func registerChatRoutes(router gin.IRoutes, handler *chathandler.ChatHandler) {
	router.POST("/chat", sendChat(handler))
	router.GET("/contexts/:contextId/chats", listChats(handler))
}

// sendChat godoc
// @Summary      Send a chat message
// @Description  Relays the query to the workflow service. Blocking mode returns the upstream completion verbatim, streaming mode re-emits its server-sent events unchanged.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Produce      text/event-stream
// @Param        request  body      requests.ChatRequest  true  "Chat request"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  platformerrors.ErrorResponse
// @Failure      404      {object}  platformerrors.ErrorResponse
// @Failure      500      {object}  platformerrors.ErrorResponse
// @Failure      502      {object}  platformerrors.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/chat [post]
func sendChat(handler *chathandler.ChatHandler) gin.HandlerFunc {
	return handler.SendChat
}

// listChats godoc
// @Summary      List chats of a context
// @Tags         chat
// @Produce      json
// @Param        contextId  path      int  true  "Context ID"
// @Success      200        {object}  responses.ChatListResponse
// @Failure      400        {object}  platformerrors.ErrorResponse
// @Failure      404        {object}  platformerrors.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/contexts/{contextId}/chats [get]
func listChats(handler *chathandler.ChatHandler) gin.HandlerFunc {
	return handler.ListChats
}
