package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/calckeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func (s *Server) register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	user, err := s.users.Register(c.Request.Context(), in)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(user))
}

func (s *Server) login(c *gin.Context) {
	var in services.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	sess, err := s.users.Login(c.Request.Context(), in)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTokenResponse(sess))
}

// formLogin is the OAuth2 password flow: form fields in, bare access token out.
func (s *Server) formLogin(c *gin.Context) {
	var in services.LoginInput
	if err := c.ShouldBindWith(&in, binding.Form); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	sess, err := s.users.Login(c.Request.Context(), in)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, OAuthTokenResponse{AccessToken: sess.Tokens.Access.Value, TokenType: "bearer"})
}

func (s *Server) refresh(c *gin.Context) {
	var in refreshRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	sess, err := s.users.Refresh(c.Request.Context(), in.RefreshToken)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTokenResponse(sess))
}

// logout accepts an empty body; the refresh token is optional.
func (s *Server) logout(c *gin.Context) {
	var in logoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			s.abortWithError(c, bindError(err))
			return
		}
	}

	if err := s.users.Logout(c.Request.Context(), accessClaims(c), in.RefreshToken); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) me(c *gin.Context) {
	user, err := s.users.Profile(c.Request.Context(), mustIdentity(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (s *Server) getUser(c *gin.Context) {
	user, err := s.users.GetUser(c.Request.Context(), mustIdentity(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (s *Server) updateUser(c *gin.Context) {
	var in services.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	user, err := s.users.UpdateProfile(c.Request.Context(), mustIdentity(c), c.Param("id"), in)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (s *Server) changePassword(c *gin.Context) {
	var in services.PasswordChange
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, bindError(err))
		return
	}

	user, err := s.users.ChangePassword(c.Request.Context(), mustIdentity(c), c.Param("id"), in)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (s *Server) deactivateUser(c *gin.Context) {
	user, err := s.users.Deactivate(c.Request.Context(), mustIdentity(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (s *Server) deleteUser(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), mustIdentity(c), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
