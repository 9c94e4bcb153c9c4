package xerrors

var (
	// ErrInvalidConfig 模拟配置违反约束。
	ErrInvalidConfig = New(ErrInvalidConfiguration, 400101, "invalid simulation configuration", "", nil)
	// ErrEmptyBatch 路径批次为空。
	ErrEmptyBatch = New(ErrInvalidInput, 400201, "empty path batch", "at least one simulated path is required", nil)
	// ErrEmptyDistribution 收益分布为空，均值无定义。
	ErrEmptyDistribution = New(ErrInvalidInput, 400202, "empty payoff distribution", "mean of an empty distribution is undefined", nil)
	// ErrUnknownVariant 不支持的期权变体。
	ErrUnknownVariant = New(ErrInvalidInput, 400203, "unknown option variant", "see payoff.AllVariants", nil)
	// ErrMissingStrike 欧式期权缺少行权价。
	ErrMissingStrike = New(ErrInvalidInput, 400204, "invalid strike", "european variants require a positive strike", nil)
	// ErrNoVariants 定价请求未选择任何期权。
	ErrNoVariants = New(ErrInvalidInput, 400205, "no option variants requested", "", nil)
	// ErrInvalidDiscount 折现因子非法。
	ErrInvalidDiscount = New(ErrInvalidInput, 400206, "invalid discount factor", "discount factor must be finite and positive", nil)
	// ErrSimulationCanceled 模拟被上下文取消。
	ErrSimulationCanceled = New(ErrCanceled, 499001, "simulation canceled", "", nil)
	// ErrSimulationTimeout 模拟超过请求截止时间。
	ErrSimulationTimeout = New(ErrTimeout, 504001, "simulation timed out", "", nil)
)
