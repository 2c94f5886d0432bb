package handlers

import (
	"strings"

	"github.com/dimitrije/taskhub-api/internal/middleware"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type ProjectHandler struct {
	projectService    ProjectServiceInterface
	membershipService MembershipServiceInterface
}

func NewProjectHandler(projectService ProjectServiceInterface, membershipService MembershipServiceInterface) *ProjectHandler {
	return &ProjectHandler{
		projectService:    projectService,
		membershipService: membershipService,
	}
}

func (h *ProjectHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateProjectRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		c.BadRequest("name is required")
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), req.Name, req.Description, userID)
	if err != nil {
		respondError(c, err, "failed to create project")
		return
	}

	_ = c.JSON(201, dto.NewProjectResponse(project, models.RoleAdmin))
}

func (h *ProjectHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	projects, roles, err := h.projectService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to list projects")
		return
	}

	response := make([]dto.ProjectResponse, len(projects))
	for i := range projects {
		response[i] = dto.NewProjectResponse(&projects[i], roles[i])
	}

	_ = c.JSON(200, response)
}

func (h *ProjectHandler) Get(c *drift.Context) {
	projectID := middleware.GetProjectID(c)

	project, err := h.projectService.GetByID(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	_ = c.JSON(200, dto.NewProjectResponse(project, middleware.GetProjectRole(c)))
}

func (h *ProjectHandler) Update(c *drift.Context) {
	projectID := middleware.GetProjectID(c)

	var req dto.UpdateProjectRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), projectID, middleware.GetUserID(c), req.Name, req.Description)
	if err != nil {
		respondError(c, err, "failed to update project")
		return
	}

	_ = c.JSON(200, dto.NewProjectResponse(project, middleware.GetProjectRole(c)))
}

func (h *ProjectHandler) Delete(c *drift.Context) {
	projectID := middleware.GetProjectID(c)

	if err := h.projectService.Delete(c.Request.Context(), projectID, middleware.GetUserID(c)); err != nil {
		respondError(c, err, "failed to delete project")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "project deleted"})
}

func (h *ProjectHandler) ListMembers(c *drift.Context) {
	members, err := h.membershipService.ListMembers(c.Request.Context(), middleware.GetProjectID(c))
	if err != nil {
		respondError(c, err, "failed to list members")
		return
	}

	_ = c.JSON(200, dto.NewMemberResponses(members))
}

func (h *ProjectHandler) RemoveMember(c *drift.Context) {
	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	err = h.projectService.RemoveMember(c.Request.Context(), middleware.GetProjectID(c), middleware.GetUserID(c), memberID)
	if err != nil {
		respondError(c, err, "failed to remove member")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "member removed"})
}

func (h *ProjectHandler) ChangeMemberRole(c *drift.Context) {
	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	var req dto.ChangeRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	err = h.projectService.ChangeMemberRole(c.Request.Context(), middleware.GetProjectID(c), middleware.GetUserID(c), memberID, req.Role)
	if err != nil {
		respondError(c, err, "failed to change member role")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "role updated"})
}
