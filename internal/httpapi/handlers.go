package httpapi

import (
	"errors"
	"net/http"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/auth"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/chat"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/identity"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/project"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Tokens   *auth.Manager
	Identity *identity.Service
	Chat     *chat.Service
	Projects *project.Service
}

// rolePaths maps the public registration/login path segment to a partition.
var rolePaths = map[string]identity.Partition{
	"contractor":      identity.PartitionContractor,
	"supplier":        identity.PartitionSupplier,
	"supervisor":      identity.PartitionSupervisor,
	"government":      identity.PartitionGovernment,
	"project-manager": identity.PartitionProjectManager,
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authResponse mirrors the historical login/register payload shape.
type authResponse struct {
	Message string           `json:"message"`
	Token   string           `json:"token"`
	Data    identity.Account `json:"data"`
}

// --- Auth ---

// Register creates an account in the partition named by the :role path segment.
func (h Handlers) Register(c *gin.Context) {
	p, ok := rolePaths[c.Param("role")]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown role"})
		return
	}
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	account, err := h.Identity.Register(c.Request.Context(), p, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUsernameTaken):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "username already registered"})
		case errors.Is(err, identity.ErrInvalidArgument):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	token, err := h.Tokens.GenerateTokenWithSubject(account.Username, account.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, authResponse{Message: "registered", Token: token, Data: account})
}

// Login checks credentials against the partition named by the :role segment
// and issues a token carrying both username and subject id.
func (h Handlers) Login(c *gin.Context) {
	p, ok := rolePaths[c.Param("role")]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown role"})
		return
	}
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	account, err := h.Identity.Authenticate(c.Request.Context(), p, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, err := h.Tokens.GenerateTokenWithSubject(account.Username, account.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, authResponse{Message: "logged in", Token: token, Data: account})
}

// Me echoes the bound principal.
func (h Handlers) Me(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- Chat ---

// ChatHistory returns the conversation between the caller and :otherUserId,
// timestamp ascending. The caller side of the pair is always the bound
// principal's subject id.
func (h Handlers) ChatHistory(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	other := c.Param("otherUserId")
	if other == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "otherUserId required"})
		return
	}

	msgs, err := h.Chat.History(c.Request.Context(), p.SubjectID, other)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
		return
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

// MarkRead bulk-acknowledges everything :senderId sent to the caller.
func (h Handlers) MarkRead(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	senderID := c.Param("senderId")
	if senderID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "senderId required"})
		return
	}

	if err := h.Chat.MarkRead(c.Request.Context(), senderID, p.SubjectID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "mark read failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "messages marked as READ"})
}

// --- Projects ---

type createProjectRequest struct {
	Name string `json:"name"`
}

func (h Handlers) CreateProject(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	proj, err := h.Projects.Create(c.Request.Context(), req.Name, p.SubjectID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, proj)
}

func (h Handlers) GetProject(c *gin.Context) {
	proj, err := h.Projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, proj)
}

func (h Handlers) ListProjects(c *gin.Context) {
	p, err := auth.PrincipalFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	out, err := h.Projects.ListByManager(c.Request.Context(), p.SubjectID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	if out == nil {
		out = []project.Project{}
	}
	c.JSON(http.StatusOK, out)
}

type transitionRequest struct {
	Status project.Status `json:"status"`
}

func (h Handlers) TransitionProject(c *gin.Context) {
	id := c.Param("id")
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	proj, err := h.Projects.Transition(c.Request.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, project.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "project not found"})
		case errors.Is(err, project.ErrInvalidTransition):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, project.ErrInvalidArgument):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "transition failed"})
		}
		return
	}
	c.JSON(http.StatusOK, proj)
}
