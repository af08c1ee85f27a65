package future

type Builder struct {
	iFuture    *iFutureImpl
	dataFuture *iDataFutureImpl
}

func Factory() Builder {
	return Builder{
		iFuture:    &iFutureImpl{},
		dataFuture: &iDataFutureImpl{},
	}
}

func FactoryOf(future IFuture) Builder {
	return Builder{
		iFuture:    future.(*iFutureImpl),
		dataFuture: &iDataFutureImpl{},
	}
}

func (builder Builder) SetData(data interface{}) Builder {
	builder.dataFuture.data = data
	return builder
}

func (builder Builder) SetError(code ErrorCode, message string, reason error) Builder {
	builder.dataFuture.futureError = iErrorFutureImpl{
		code:    code,
		message: message,
		reason:  reason,
	}
	return builder
}

// Build creates the channel without sending, a later FactoryOf(...).Send() completes it
func (builder Builder) Build() IFuture {
	builder.ensureChannel()
	return builder.iFuture
}

// Send never blocks, the single result is buffered until someone reads it
func (builder Builder) Send() {
	builder.ensureChannel()
	defer close(builder.iFuture.channel)
	builder.iFuture.channel <- builder.dataFuture
}

func (builder Builder) BuildAndSend() IFuture {
	builder.Send()
	return builder.iFuture
}

func (builder Builder) ensureChannel() {
	if builder.iFuture.channel == nil {
		builder.iFuture.channel = make(stream, 1)
	}
}
