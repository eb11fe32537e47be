package constants

// Centralized constants for headers, env keys and routes.
const (
	// Environment variable keys
	EnvSessionSecret       = "SESSION_SECRET"
	EnvGoogleClientID      = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret  = "GOOGLE_CLIENT_SECRET"
	EnvSessionSecureCookie = "SESSION_SECURE_COOKIE"

	// HTTP headers and content types
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"

	ContentTypeJSON = "application/json"

	CacheControlHeader  = "Cache-Control"
	CacheControlNoCache = "no-cache, no-store, must-revalidate"

	// Authorization prefix
	BearerPrefix = "Bearer "

	// Session / Cookie names
	CookieSessionName = "c_session"

	// Google OAuth constants
	GoogleOAuthRedirect = "postmessage"
	GoogleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var (
	// Scopes for Google userinfo
	GoogleUserInfoScopes = []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"}
)

// Routes used by the backend router
const (
	RouteAPIPrefix          = "/api"
	RouteVersion            = "/version"
	RouteMonsters           = "/monsters"
	RouteLeaderboard        = "/leaderboard"
	RouteAuthGoogleCallBack = "/auth/google/oauth2callback"
	RouteAuthLogout         = "/auth/logout"
	RouteEncountersOpen     = "/encounters/open"
	RoutePlayerStats        = "/player-stats"
	RouteEncounters         = "/encounters"
	RouteEncountersJoin     = "/encounters/join"
	RouteEncounterByID      = "/encounters/:encounterID"
	RouteEncounterStart     = "/encounters/:encounterID/start"
	RouteEncounterEnd       = "/encounters/:encounterID/end"
	RouteEncounterAction    = "/encounters/:encounterID/action"
	RouteEncounterLog       = "/encounters/:encounterID/log"
	RouteEncounterLogStream = "/encounters/:encounterID/log/stream"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
	JSONKeyDetails = "details"
	JSONKeyStatus  = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest         = "Invalid request"
	ErrMissingGoogleEnv       = "Missing GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET in environment"
	ErrInvalidID              = "Invalid encounter ID"
	ErrEncounterNotFound      = "Encounter not found"
	ErrFailedFetchEncounters  = "Failed to fetch encounters"
	ErrFailedFetchMonsters    = "Failed to fetch monsters"
	ErrFailedFetchLeaderboard = "Failed to fetch leaderboard"
	ErrFailedFetchStats       = "Failed to fetch stats"

	ErrFailedCreateEncounter   = "Failed to create encounter"
	ErrEncounterNameExceeds    = "Encounter name exceeds 64 characters"
	ErrNotEnoughCombatants     = "An encounter needs at least one character and one monster"
	ErrEncounterAlreadyStarted = "Encounter has already started"
	ErrFailedUpdateEncounter   = "Failed to update encounter"
	ErrFailedEndEncounter      = "Failed to end encounter"
	ErrNotEncounterOwner       = "Only the encounter owner may do this"

	ErrFailedStoreAction      = "Failed to store action"
	ErrEncounterNotInProgress = "Encounter is not in progress"

	ErrFailedExchangeToken    = "Failed to exchange token"
	ErrFailedGetUserInfo      = "Failed to get user info"
	ErrFailedReadUserData     = "Failed to read user data: %s"
	ErrNoEmailInGoogleProfile = "No email in Google profile"
	ErrFailedCreateSession    = "Failed to create session"

	ErrAuthRequired   = "Authentication required"
	ErrInvalidSession = "Invalid session"
)

// Logging field names
const (
	LogFieldEncounterID = "encounter_id"
	LogFieldCombatantID = "combatant_id"
	LogFieldAction      = "action"
	LogFieldRound       = "round"
	LogFieldAddr        = "addr"
)
