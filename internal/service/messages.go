package service

// Fixed customer-facing replies. The assistant answers in the store's
// customer language (Arabic); generated replies follow the customer's own
// language via the conversational collaborator.
const (
	msgWaitForAgent = "تم تحويلك إلى أحد موظفي خدمة العملاء، يرجى الانتظار وسيتم الرد عليك قريباً 🙏"
	msgHandoffAck   = "حاضر! سيتواصل معك أحد موظفينا خلال دقائق، ويمكنك الاتصال بنا مباشرة من الزر أدناه."
	msgApology      = "نعتذر، حدث خطأ أثناء معالجة رسالتك. حاول مرة أخرى من فضلك 🙏"

	msgAskOrderNumber    = "من فضلك زوّدنا برقم الطلب (مثال: 4521) حتى نتحقق من حالته."
	msgOrderStatusFmt    = "طلبك رقم %s حالته الآن: %s"
	msgOrderLookupFailed = "تعذر الاستعلام عن حالة الطلب حالياً، حاول بعد قليل من فضلك."

	msgProductLookupFailed = "تعذر البحث في المتجر حالياً، حاول بعد قليل من فضلك."
	msgProductNotFound     = "لم نجد هذا المنتج حالياً، لكن تصلنا منتجات جديدة باستمرار — تصفح أحدث العروض في متجرنا."

	msgComplaintAck = "نأسف جداً لتجربتك هذه 😔 تم تسجيل شكواك وسيتابعها فريقنا معك في أقرب وقت."

	msgSocialLookupFailed = "تعذر جلب تفاصيل المنشور حالياً، أرسل لنا اسم المنتج ونساعدك فوراً."

	msgGeneralFallback = "عذراً، لم أفهم طلبك تماماً. هل يمكنك التوضيح أكثر؟"

	msgVoiceTrouble = "تعذر سماع الرسالة الصوتية بوضوح، هل يمكنك كتابة طلبك نصياً؟"

	// imageFallbackDescription stands in for the vision collaborator's output
	// when it fails; the media kind stays image so the reply path still picks
	// a sensible default.
	imageFallbackDescription = "صورة من العميل تعذر تحليل محتواها"
)
