package intent

// seedExemplars 各意图的种子示例，启动即可用，后续由人工反馈扩充
var seedExemplars = map[string][]string{
	IntentFAQ: {
		"What is your return policy?",
		"How do I return an item?",
		"What is your refund policy?",
		"Do you offer exchanges?",
		"How long do I have to return something?",
		"What are your shipping options?",
		"How much does shipping cost?",
		"Do you ship internationally?",
		"What are the delivery times?",
		"Is there free shipping?",
		"How do I reset my password?",
		"How do I create an account?",
		"How do I update my email address?",
		"What payment methods do you accept?",
		"Do you accept PayPal?",
		"Can I pay with gift cards?",
		"What are your business hours?",
		"Do you have a warranty?",
		"What is your price match policy?",
	},
	IntentOrderInquiry: {
		"Where is my order?",
		"When will my order arrive?",
		"What's the status of order #12345?",
		"Has my order shipped yet?",
		"Why hasn't my order arrived?",
		"Track my order",
		"Check order status",
		"I need to cancel my order",
		"Can I modify my order?",
		"Can I change my shipping address?",
		"I never received my order",
		"My tracking number isn't working",
		"Part of my order is missing",
		"Wrong item in my order",
	},
	IntentTechnicalSupport: {
		"The website is not working",
		"The app keeps crashing",
		"I can't load the page",
		"Error message on website",
		"I can't log into my account",
		"Login not working",
		"Forgot my password",
		"Account locked",
		"I'm having trouble with checkout",
		"The payment failed",
		"Payment declined",
		"Promo code not working",
		"Email confirmation not received",
	},
	IntentComplaint: {
		"I'm not happy with my purchase",
		"The product arrived damaged",
		"This product is defective",
		"Product doesn't match description",
		"Poor quality product",
		"The service was terrible",
		"I want to file a complaint",
		"This is unacceptable",
		"Very disappointed",
		"Terrible customer service",
		"Package arrived late",
		"Wrong item delivered",
	},
	IntentGeneral: {
		"Hello",
		"Hi there",
		"Can you help me?",
		"I have a question",
		"Thanks for your help",
	},
}
