package physics

import (
	"context"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// PhysicsClient клиент сервиса физики
type PhysicsClient struct {
	conn   *grpc.ClientConn
	logger *log.Logger
}

// NewPhysicsClient создает новый клиент для взаимодействия с физическим сервером
func NewPhysicsClient(address string, opts ...grpc.DialOption) (*PhysicsClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, err
	}

	return &PhysicsClient{
		conn:   conn,
		logger: log.New(log.Writer(), "[PhysicsClient] ", log.LstdFlags),
	}, nil
}

// ApplyPhysicsConfig отправляет серверу текущую глобальную конфигурацию
func (c *PhysicsClient) ApplyPhysicsConfig(ctx context.Context) error {
	config := GetPhysicsConfig()
	c.logger.Printf("Применение конфигурации физики: гравитация %v, подшагов %d", config.Gravity, config.Substeps)

	_, err := c.SetPhysicsConfig(ctx, &ConfigMessage{Config: *config})
	if err != nil {
		c.logger.Printf("Ошибка при применении конфигурации: %v", err)
		return err
	}
	return nil
}

// Close закрывает соединение с физическим сервером
func (c *PhysicsClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *PhysicsClient) invoke(ctx context.Context, method string, req, resp any) error {
	return c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp, grpc.CallContentSubtype(CodecName))
}

// Проброс вызовов к gRPC методам физического сервера

func (c *PhysicsClient) CreateObject(ctx context.Context, req *BodySpec) (*StatusResponse, error) {
	resp := new(StatusResponse)
	return resp, c.invoke(ctx, "CreateObject", req, resp)
}

func (c *PhysicsClient) RemoveObject(ctx context.Context, req *IDRequest) (*StatusResponse, error) {
	resp := new(StatusResponse)
	return resp, c.invoke(ctx, "RemoveObject", req, resp)
}

func (c *PhysicsClient) CreateConstraint(ctx context.Context, req *ConstraintSpec) (*StatusResponse, error) {
	resp := new(StatusResponse)
	return resp, c.invoke(ctx, "CreateConstraint", req, resp)
}

func (c *PhysicsClient) RemoveConstraint(ctx context.Context, req *IDRequest) (*StatusResponse, error) {
	resp := new(StatusResponse)
	return resp, c.invoke(ctx, "RemoveConstraint", req, resp)
}

func (c *PhysicsClient) ApplyImpulse(ctx context.Context, req *VectorRequest) (*StatusResponse, error) {
	resp := new(StatusResponse)
	return resp, c.invoke(ctx, "ApplyImpulse", req, resp)
}

func (c *PhysicsClient) ApplyTorque(ctx context.Context, req *VectorRequest) (*StatusResponse, error) {
	resp := new(StatusResponse)
	return resp, c.invoke(ctx, "ApplyTorque", req, resp)
}

func (c *PhysicsClient) GetObjectState(ctx context.Context, req *IDRequest) (*BodyState, error) {
	resp := new(BodyState)
	return resp, c.invoke(ctx, "GetObjectState", req, resp)
}

func (c *PhysicsClient) UpdateObjectMass(ctx context.Context, req *MassRequest) (*StatusResponse, error) {
	resp := new(StatusResponse)
	return resp, c.invoke(ctx, "UpdateObjectMass", req, resp)
}

func (c *PhysicsClient) SetObjectActive(ctx context.Context, req *ActiveRequest) (*StatusResponse, error) {
	resp := new(StatusResponse)
	return resp, c.invoke(ctx, "SetObjectActive", req, resp)
}

func (c *PhysicsClient) SetObjectMotion(ctx context.Context, req *MotionRequest) (*StatusResponse, error) {
	resp := new(StatusResponse)
	return resp, c.invoke(ctx, "SetObjectMotion", req, resp)
}

func (c *PhysicsClient) Step(ctx context.Context, req *StepRequest) (*StepResponse, error) {
	resp := new(StepResponse)
	return resp, c.invoke(ctx, "Step", req, resp)
}

func (c *PhysicsClient) SetPhysicsConfig(ctx context.Context, req *ConfigMessage) (*StatusResponse, error) {
	resp := new(StatusResponse)
	return resp, c.invoke(ctx, "SetPhysicsConfig", req, resp)
}

func (c *PhysicsClient) GetPhysicsConfig(ctx context.Context) (*ConfigMessage, error) {
	resp := new(ConfigMessage)
	return resp, c.invoke(ctx, "GetPhysicsConfig", &Empty{}, resp)
}
