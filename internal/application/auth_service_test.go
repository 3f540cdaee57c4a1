package application

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	"github.com/campusconnect/campus-connect/pkg/apperror"
	mailtpl "github.com/campusconnect/campus-connect/pkg/mailer/templates"
)

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	tok := u.Query().Get("token")
	require.NotEmpty(t, tok)
	return tok
}

func TestAuthService_RegisterVerifyLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meta := ClientMeta{IP: "10.0.0.1", UserAgent: "test"}

	u, err := f.auth.Register(ctx, RegisterInput{Name: "Asha", Email: "Asha@SREC.ac.in", Password: testPassword, Role: entity.RoleStudent}, meta)
	require.NoError(t, err)
	assert.Equal(t, "asha@srec.ac.in", u.Email)
	assert.False(t, u.Verified)
	assert.NotEqual(t, testPassword, u.Password)

	job := f.queue.last()
	require.NotNil(t, job)
	assert.Equal(t, mailtpl.VerifyEmail, job.Template)
	assert.Equal(t, "asha@srec.ac.in", job.To)

	_, err = f.auth.Login(ctx, LoginInput{Email: "asha@srec.ac.in", Password: testPassword}, meta)
	require.Error(t, err)
	assert.Equal(t, 403, apperror.HTTPStatus(err))
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	token := tokenFromLink(t, job.Data["VerifyURL"].(string))
	verified, err := f.auth.Verify(ctx, token, meta)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Equal(t, mailtpl.Welcome, f.queue.last().Template)

	list, unread := f.notify.List(ctx, u.ID)
	assert.Equal(t, 1, unread)
	assert.Equal(t, []string{"Welcome to Campus Connect"}, titles(list))

	// verifying twice is idempotent
	again, err := f.auth.Verify(ctx, token, meta)
	require.NoError(t, err)
	assert.True(t, again.Verified)
	list, _ = f.notify.List(ctx, u.ID)
	assert.Len(t, list, 1)

	res, err := f.auth.Login(ctx, LoginInput{Email: "ASHA@srec.ac.in", Password: testPassword}, meta)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, u.ID, res.User.ID)

	me, err := f.auth.Identity.ResolveSession(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	assert.Equal(t, []string{AuditRegister, AuditVerify, AuditLogin}, f.audit.actions())
}

func TestAuthService_RegisterRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "Taken", "taken@srec.ac.in", entity.RoleStudent)

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"foreign domain", RegisterInput{Name: "A", Email: "a@gmail.com", Password: testPassword, Role: entity.RoleStudent}},
		{"subdomain is not the institution", RegisterInput{Name: "A", Email: "a@cs.srec.ac.in", Password: testPassword, Role: entity.RoleStudent}},
		{"short password", RegisterInput{Name: "A", Email: "a@srec.ac.in", Password: "short", Role: entity.RoleStudent}},
		{"unknown role", RegisterInput{Name: "A", Email: "a@srec.ac.in", Password: testPassword, Role: "admin"}},
		{"duplicate email", RegisterInput{Name: "A", Email: "TAKEN@srec.ac.in", Password: testPassword, Role: entity.RoleStudent}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.auth.Register(ctx, tc.in, ClientMeta{})
			require.Error(t, err)
			assert.Equal(t, 400, apperror.HTTPStatus(err))
		})
	}
}

func TestAuthService_VerifyRejectsSessionCredential(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "Ravi", "ravi@srec.ac.in", entity.RoleFaculty)
	session, _, err := f.creds.IssueSession(u.ID)
	require.NoError(t, err)

	_, err = f.auth.Verify(context.Background(), session, ClientMeta{})
	assert.Equal(t, 401, apperror.HTTPStatus(err))

	_, err = f.auth.Verify(context.Background(), "", ClientMeta{})
	assert.Equal(t, 400, apperror.HTTPStatus(err))
}

func TestAuthService_VerifyUnknownEmail(t *testing.T) {
	f := newFixture(t)
	tok, _, err := f.creds.IssueVerification("ghost@srec.ac.in")
	require.NoError(t, err)

	_, err = f.auth.Verify(context.Background(), tok, ClientMeta{})
	assert.Equal(t, 404, apperror.HTTPStatus(err))
}

func TestAuthService_LoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "Asha", "asha@srec.ac.in", entity.RoleStudent)

	_, err := f.auth.Login(ctx, LoginInput{Email: "asha@srec.ac.in", Password: "wrong-password"}, ClientMeta{})
	assert.Equal(t, 401, apperror.HTTPStatus(err))
	_, err = f.auth.Login(ctx, LoginInput{Email: "nobody@srec.ac.in", Password: testPassword}, ClientMeta{})
	assert.Equal(t, 401, apperror.HTTPStatus(err))

	assert.Equal(t, []string{AuditLoginFailed, AuditLoginFailed}, f.audit.actions())
}

func TestAuthService_ResendVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.auth.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@srec.ac.in", Password: testPassword, Role: entity.RoleStudent}, ClientMeta{})
	require.NoError(t, err)

	require.NoError(t, f.auth.ResendVerification(ctx, "asha@srec.ac.in", ClientMeta{}))
	assert.Len(t, f.queue.jobs, 2)

	err = f.auth.ResendVerification(ctx, "nobody@srec.ac.in", ClientMeta{})
	assert.Equal(t, 404, apperror.HTTPStatus(err))

	verified := true
	_, err = f.store.UpdateUser(u.ID, entity.UserPatch{Verified: &verified})
	require.NoError(t, err)
	err = f.auth.ResendVerification(ctx, "asha@srec.ac.in", ClientMeta{})
	assert.Equal(t, 400, apperror.HTTPStatus(err))
}

func TestAuthService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "Asha", "asha@srec.ac.in", entity.RoleStudent)

	name := "  Asha K  "
	avatar := "https://cdn.example.com/a.png"
	got, err := f.auth.UpdateProfile(ctx, u.ID, ProfileInput{Name: &name, AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Asha K", got.Name)
	assert.Equal(t, avatar, got.AvatarURL)
	assert.Equal(t, entity.RoleStudent, got.Role)

	blank := " "
	_, err = f.auth.UpdateProfile(ctx, u.ID, ProfileInput{Name: &blank})
	assert.Equal(t, 400, apperror.HTTPStatus(err))

	relative := "/a.png"
	_, err = f.auth.UpdateProfile(ctx, u.ID, ProfileInput{AvatarURL: &relative})
	assert.Equal(t, 400, apperror.HTTPStatus(err))
}

func TestAuthService_UploadAvatarWithoutStorage(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "Asha", "asha@srec.ac.in", entity.RoleStudent)

	_, err := f.auth.UploadAvatar(context.Background(), u.ID, strings.NewReader("png"), "a.png", "image/png")
	assert.Equal(t, 503, apperror.HTTPStatus(err))
}

func TestVerifyLink(t *testing.T) {
	assert.Equal(t, "http://x/verify?token=a%2Bb", verifyLink("http://x/verify", "a+b"))
	assert.Equal(t, "http://x/verify?src=mail&token=t", verifyLink("http://x/verify?src=mail", "t"))
}
