package retrieval

// Entry is one question-bank item. ReferenceAnswer stays internal to the
// engine and is never sent to the candidate.
type Entry struct {
	Question        string   `json:"question"`
	ReferenceAnswer string   `json:"reference_answer"`
	Category        string   `json:"category"`
	Difficulty      int      `json:"difficulty"`
	Tags            []string `json:"tags"`
}

// DefaultCorpus returns the built-in question bank used when no external bank
// is configured. Categories map onto the interview stages via stageCategories.
func DefaultCorpus() []Entry {
	return []Entry{
		{
			Question:        "请用1-2分钟简单介绍一下你自己。",
			ReferenceAnswer: "考察表达能力、逻辑性、是否能突出亮点。好的回答应包含：教育背景、核心技能、相关经验、求职动机。",
			Category:        "自我介绍",
			Difficulty:      1,
			Tags:            []string{"开场", "表达能力"},
		},
		{
			Question:        "你为什么对这个岗位感兴趣？",
			ReferenceAnswer: "考察求职动机和岗位匹配度。期望听到对岗位的理解、与自身技能的匹配、职业规划。",
			Category:        "自我介绍",
			Difficulty:      1,
			Tags:            []string{"动机", "职业规划"},
		},
		{
			Question:        "请介绍一个你最有成就感的项目，你在其中负责什么？",
			ReferenceAnswer: "考察项目经验深度、角色定位。使用STAR法则评估：情境、任务、行动、结果。",
			Category:        "项目经验",
			Difficulty:      2,
			Tags:            []string{"项目", "成就"},
		},
		{
			Question:        "在这个项目中，你遇到的最大挑战是什么？你是如何解决的？",
			ReferenceAnswer: "考察问题解决能力、抗压能力。期望听到具体的挑战、思考过程、解决方案、结果。",
			Category:        "项目经验",
			Difficulty:      3,
			Tags:            []string{"挑战", "问题解决"},
		},
		{
			Question:        "这个项目的技术选型是怎么考虑的？有没有更好的方案？",
			ReferenceAnswer: "考察技术视野和决策能力。期望听到技术对比、权衡考虑、对替代方案的了解。",
			Category:        "项目经验",
			Difficulty:      3,
			Tags:            []string{"技术选型", "架构"},
		},
		{
			Question:        "你在团队中是如何与其他成员协作的？",
			ReferenceAnswer: "考察团队协作能力。期望听到沟通方式、冲突处理、协作工具使用。",
			Category:        "项目经验",
			Difficulty:      2,
			Tags:            []string{"团队", "协作"},
		},
		{
			Question:        "请解释一下什么是RESTful API？",
			ReferenceAnswer: "REST是一种架构风格，核心概念：资源、URI、HTTP方法、无状态、统一接口。",
			Category:        "基础知识-通用",
			Difficulty:      2,
			Tags:            []string{"API", "REST", "后端"},
		},
		{
			Question:        "HTTP和HTTPS有什么区别？HTTPS是如何保证安全的？",
			ReferenceAnswer: "HTTPS = HTTP + TLS/SSL。安全保证：加密传输、身份验证、数据完整性。握手过程。",
			Category:        "基础知识-通用",
			Difficulty:      2,
			Tags:            []string{"网络", "安全", "HTTP"},
		},
		{
			Question:        "数据库事务的ACID特性是什么？",
			ReferenceAnswer: "原子性、一致性、隔离性、持久性。每个特性的含义和实现方式。",
			Category:        "基础知识-通用",
			Difficulty:      3,
			Tags:            []string{"数据库", "事务", "ACID"},
		},
		{
			Question:        "Python中的GIL是什么？它有什么影响？",
			ReferenceAnswer: "全局解释器锁，确保同一时刻只有一个线程执行Python字节码。影响多线程性能，解决方案：多进程、异步IO。",
			Category:        "基础知识-Python",
			Difficulty:      3,
			Tags:            []string{"Python", "GIL", "多线程"},
		},
		{
			Question:        "Python中的装饰器是什么？请举例说明。",
			ReferenceAnswer: "装饰器是修改函数行为的语法糖，本质是高阶函数。常见应用：日志、权限、缓存。",
			Category:        "基础知识-Python",
			Difficulty:      2,
			Tags:            []string{"Python", "装饰器"},
		},
		{
			Question:        "解释Python中的生成器和迭代器的区别。",
			ReferenceAnswer: "迭代器是实现了__iter__和__next__的对象。生成器是特殊的迭代器，使用yield。优点：内存效率。",
			Category:        "基础知识-Python",
			Difficulty:      2,
			Tags:            []string{"Python", "生成器", "迭代器"},
		},
		{
			Question:        "请解释JavaScript中的事件循环(Event Loop)机制。",
			ReferenceAnswer: "单线程执行，异步通过事件循环实现。调用栈、任务队列、微任务队列。宏任务和微任务的执行顺序。",
			Category:        "基础知识-JavaScript",
			Difficulty:      3,
			Tags:            []string{"JavaScript", "事件循环", "异步"},
		},
		{
			Question:        "var、let、const有什么区别？",
			ReferenceAnswer: "作用域：var函数级，let/const块级。提升行为不同。const不可重新赋值。",
			Category:        "基础知识-JavaScript",
			Difficulty:      1,
			Tags:            []string{"JavaScript", "变量"},
		},
		{
			Question:        "什么是闭包？请举例说明它的应用场景。",
			ReferenceAnswer: "函数访问其词法作用域外的变量。应用：数据私有化、柯里化、模块模式。",
			Category:        "基础知识-JavaScript",
			Difficulty:      2,
			Tags:            []string{"JavaScript", "闭包"},
		},
		{
			Question:        "请解释Java中的垃圾回收机制。",
			ReferenceAnswer: "自动内存管理。标记-清除、复制、标记-整理算法。分代收集：年轻代、老年代。常见GC：G1、ZGC。",
			Category:        "基础知识-Java",
			Difficulty:      3,
			Tags:            []string{"Java", "GC", "内存"},
		},
		{
			Question:        "HashMap的实现原理是什么？",
			ReferenceAnswer: "数组+链表+红黑树。哈希函数、扩容机制、线程安全问题。Java 8优化。",
			Category:        "基础知识-Java",
			Difficulty:      3,
			Tags:            []string{"Java", "HashMap", "数据结构"},
		},
		{
			Question:        "什么是Spring的IoC和AOP？",
			ReferenceAnswer: "IoC控制反转，DI依赖注入。AOP面向切面编程，横切关注点。应用：事务、日志、权限。",
			Category:        "基础知识-Java",
			Difficulty:      2,
			Tags:            []string{"Java", "Spring", "IoC", "AOP"},
		},
		{
			Question:        "如果让你设计一个短链接服务，你会怎么设计？",
			ReferenceAnswer: "核心：URL映射、唯一ID生成、重定向。考虑：进制转换、分布式ID、缓存、过期策略。",
			Category:        "场景算法",
			Difficulty:      4,
			Tags:            []string{"系统设计", "短链接"},
		},
		{
			Question:        "如何设计一个高并发的秒杀系统？",
			ReferenceAnswer: "核心问题：超卖、性能、公平性。方案：限流、缓存、消息队列、乐观锁/分布式锁、预扣减。",
			Category:        "场景算法",
			Difficulty:      5,
			Tags:            []string{"系统设计", "高并发", "秒杀"},
		},
		{
			Question:        "请描述一下你对微服务架构的理解。",
			ReferenceAnswer: "服务拆分、独立部署、API网关、服务发现、配置中心、链路追踪。优缺点对比。",
			Category:        "场景算法",
			Difficulty:      3,
			Tags:            []string{"架构", "微服务"},
		},
		{
			Question:        "给定一个整数数组，找出两数之和等于目标值的索引。",
			ReferenceAnswer: "方法：暴力O(n²)、哈希表O(n)。代码实现、边界条件、复杂度分析。",
			Category:        "场景算法",
			Difficulty:      2,
			Tags:            []string{"算法", "数组", "哈希表"},
		},
		{
			Question:        "你还有什么想问我的吗？",
			ReferenceAnswer: "标准结束问题。好的问题：团队情况、技术栈、成长路径、项目规划。避免只问薪资福利。",
			Category:        "反问环节",
			Difficulty:      1,
			Tags:            []string{"结束", "反问"},
		},
	}
}
