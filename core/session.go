package core

import "fmt"

// CreationType is what the session is building.
type CreationType string

const (
	CreateMaterial CreationType = "Material"
	CreateTexture  CreationType = "Texture"
)

// Session is the state of one interactive session. It is owned by a single
// front-end and is not safe for concurrent use.
type Session struct {
	Creation       CreationType
	UserPrompt     string
	Material       MaterialParams
	Texture        TextureParams
	Code           string
	Recommendation *Recommendation
}

func NewSession(c CreationType) *Session {
	return &Session{Creation: c}
}

// GenerationRequest builds the material or texture request for the current parameters.
func (s *Session) GenerationRequest() *Request {
	if s.Creation == CreateTexture {
		return NewTextureRequest(s.UserPrompt, s.Texture)
	}
	return NewMaterialRequest(s.UserPrompt, s.Material)
}

func (s *Session) RecommendationRequest() *Request {
	return NewRecommendationRequest(s.UserPrompt)
}

// ModificationRequest requires code from an earlier generation.
func (s *Session) ModificationRequest(instruction string) (*Request, error) {
	if s.Code == "" {
		return nil, ErrNoCode
	}
	return NewModificationRequest(s.Code, instruction), nil
}

// Apply records a successful result. Generated or modified code replaces the
// current code unconditionally.
func (s *Session) Apply(res *Result) {
	switch res.Kind {
	case KindRecommendation:
		s.Recommendation = res.Recommendation
	case KindMaterial, KindTexture, KindModification:
		s.Code = res.Response
	}
}

// AcceptRecommendation copies the last recommendation into the parameters
// of the current creation type.
func (s *Session) AcceptRecommendation() error {
	if s.Recommendation == nil {
		return fmt.Errorf("no recommendation to accept")
	}
	if s.Creation == CreateTexture {
		s.Recommendation.ApplyToTexture(&s.Texture)
	} else {
		s.Recommendation.ApplyToMaterial(&s.Material)
	}
	return nil
}
