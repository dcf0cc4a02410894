package physics

import (
	"context"
	"errors"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName имя gRPC сервиса физики
const ServiceName = "physics.Physics"

// PhysicsServer серверная сторона сервиса физики
type PhysicsServer interface {
	CreateObject(context.Context, *BodySpec) (*StatusResponse, error)
	RemoveObject(context.Context, *IDRequest) (*StatusResponse, error)
	CreateConstraint(context.Context, *ConstraintSpec) (*StatusResponse, error)
	RemoveConstraint(context.Context, *IDRequest) (*StatusResponse, error)
	ApplyImpulse(context.Context, *VectorRequest) (*StatusResponse, error)
	ApplyTorque(context.Context, *VectorRequest) (*StatusResponse, error)
	GetObjectState(context.Context, *IDRequest) (*BodyState, error)
	UpdateObjectMass(context.Context, *MassRequest) (*StatusResponse, error)
	SetObjectActive(context.Context, *ActiveRequest) (*StatusResponse, error)
	SetObjectMotion(context.Context, *MotionRequest) (*StatusResponse, error)
	Step(context.Context, *StepRequest) (*StepResponse, error)
	SetPhysicsConfig(context.Context, *ConfigMessage) (*StatusResponse, error)
	GetPhysicsConfig(context.Context, *Empty) (*ConfigMessage, error)
}

func unary[Req, Resp any](method string, call func(PhysicsServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PhysicsServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PhysicsServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc описание сервиса для grpc.Server
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PhysicsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateObject", PhysicsServer.CreateObject),
		unary("RemoveObject", PhysicsServer.RemoveObject),
		unary("CreateConstraint", PhysicsServer.CreateConstraint),
		unary("RemoveConstraint", PhysicsServer.RemoveConstraint),
		unary("ApplyImpulse", PhysicsServer.ApplyImpulse),
		unary("ApplyTorque", PhysicsServer.ApplyTorque),
		unary("GetObjectState", PhysicsServer.GetObjectState),
		unary("UpdateObjectMass", PhysicsServer.UpdateObjectMass),
		unary("SetObjectActive", PhysicsServer.SetObjectActive),
		unary("SetObjectMotion", PhysicsServer.SetObjectMotion),
		unary("Step", PhysicsServer.Step),
		unary("SetPhysicsConfig", PhysicsServer.SetPhysicsConfig),
		unary("GetPhysicsConfig", PhysicsServer.GetPhysicsConfig),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "physics.json",
}

// RegisterPhysicsServer регистрирует сервис физики на gRPC сервере
func RegisterPhysicsServer(s grpc.ServiceRegistrar, srv PhysicsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Server отдает SimWorld по gRPC
type Server struct {
	world  *SimWorld
	logger *log.Logger
}

// NewServer создает сервер поверх мира
func NewServer(world *SimWorld, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[PhysicsServer] ", log.LstdFlags)
	}
	return &Server{world: world, logger: logger}
}

func okStatus() *StatusResponse {
	return &StatusResponse{Status: "ok"}
}

func (s *Server) CreateObject(_ context.Context, req *BodySpec) (*StatusResponse, error) {
	if err := s.world.AddBody(*req); err != nil {
		return nil, toStatus(err)
	}
	return okStatus(), nil
}

func (s *Server) RemoveObject(_ context.Context, req *IDRequest) (*StatusResponse, error) {
	if err := s.world.RemoveBody(req.ID); err != nil {
		return nil, toStatus(err)
	}
	return okStatus(), nil
}

func (s *Server) CreateConstraint(_ context.Context, req *ConstraintSpec) (*StatusResponse, error) {
	if err := s.world.AddConstraint(*req); err != nil {
		return nil, toStatus(err)
	}
	return okStatus(), nil
}

func (s *Server) RemoveConstraint(_ context.Context, req *IDRequest) (*StatusResponse, error) {
	if err := s.world.RemoveConstraint(req.ID); err != nil {
		return nil, toStatus(err)
	}
	return okStatus(), nil
}

func (s *Server) ApplyImpulse(_ context.Context, req *VectorRequest) (*StatusResponse, error) {
	if err := s.world.ApplyImpulse(req.ID, req.Vector); err != nil {
		return nil, toStatus(err)
	}
	return okStatus(), nil
}

func (s *Server) ApplyTorque(_ context.Context, req *VectorRequest) (*StatusResponse, error) {
	if err := s.world.ApplyTorque(req.ID, req.Vector); err != nil {
		return nil, toStatus(err)
	}
	return okStatus(), nil
}

func (s *Server) GetObjectState(_ context.Context, req *IDRequest) (*BodyState, error) {
	state, err := s.world.State(req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &state, nil
}

func (s *Server) UpdateObjectMass(_ context.Context, req *MassRequest) (*StatusResponse, error) {
	if err := s.world.SetMass(req.ID, req.Mass); err != nil {
		return nil, toStatus(err)
	}
	return okStatus(), nil
}

func (s *Server) SetObjectActive(_ context.Context, req *ActiveRequest) (*StatusResponse, error) {
	if err := s.world.SetActive(req.ID, req.Active); err != nil {
		return nil, toStatus(err)
	}
	return okStatus(), nil
}

func (s *Server) SetObjectMotion(_ context.Context, req *MotionRequest) (*StatusResponse, error) {
	if err := s.world.SetMotion(req.ID, req.Rotation, req.LinearVelocity, req.AngularVelocity); err != nil {
		return nil, toStatus(err)
	}
	return okStatus(), nil
}

func (s *Server) Step(_ context.Context, req *StepRequest) (*StepResponse, error) {
	if req.DT < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "отрицательный шаг %f", req.DT)
	}
	s.world.Step(req.DT)
	return &StepResponse{Time: s.world.Elapsed(), Bodies: s.world.BodyCount()}, nil
}

func (s *Server) SetPhysicsConfig(_ context.Context, req *ConfigMessage) (*StatusResponse, error) {
	s.world.SetConfig(req.Config)
	s.logger.Printf("Получена новая конфигурация физики")
	return okStatus(), nil
}

func (s *Server) GetPhysicsConfig(context.Context, *Empty) (*ConfigMessage, error) {
	return &ConfigMessage{Config: s.world.Config()}, nil
}

// toStatus переводит ошибки мира в коды gRPC
func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrBodyNotFound), errors.Is(err, ErrConstraintNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrDuplicateID):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrInvalidShape):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
