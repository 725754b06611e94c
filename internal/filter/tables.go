package filter

// halfband2 is a 91-tap windowed-sinc lowpass for 2x oversampling
// (cutoff at 0.43 of the oversampled Nyquist, about 90 dB rejection). Its raw sum is 1;
// Table rescales it so the DC gain equals the factor.
var halfband2 = [...]float64{
	-5.9888016e-06, 3.5841506e-06, 2.5796378e-05,
	7.861443e-06, -5.8795435e-05, -5.498445e-05,
	8.7295455e-05, 0.00015883989, -6.789632e-05,
	-0.00031996446, -6.499742e-05, 0.0004935646,
	0.00037643028, -0.0005718874, -0.0008879724,
	0.00039006837, 0.0015248612, 0.00023116285,
	-0.002075111, -0.0014041153, 0.0021886756,
	0.003070332, -0.0014400476, -0.004908716,
	-0.00053972146, 0.0062996186, 0.003881939,
	-0.006382805, -0.008296353, 0.00422307,
	0.012943688, 0.0009395817, -0.016412662,
	-0.009415971, 0.016805384, 0.020854158,
	-0.01184458, -0.03416767, -0.0012888713,
	0.04765436, 0.027429905, -0.05930008,
	-0.08227777, 0.06720164, 0.30999586,
	0.42999855, 0.30999586, 0.06720164,
	-0.08227777, -0.05930008, 0.027429905,
	0.04765436, -0.0012888713, -0.03416767,
	-0.01184458, 0.020854158, 0.016805384,
	-0.009415971, -0.016412662, 0.0009395817,
	0.012943688, 0.00422307, -0.008296353,
	-0.006382805, 0.003881939, 0.0062996186,
	-0.00053972146, -0.004908716, -0.0014400476,
	0.003070332, 0.0021886756, -0.0014041153,
	-0.002075111, 0.00023116285, 0.0015248612,
	0.00039006837, -0.0008879724, -0.0005718874,
	0.00037643028, 0.0004935646, -6.499742e-05,
	-0.00031996446, -6.789632e-05, 0.00015883989,
	8.7295455e-05, -5.498445e-05, -5.8795435e-05,
	7.861443e-06, 2.5796378e-05, 3.5841506e-06,
	-5.9888016e-06,
}

// lowpass4 is a 131-tap windowed-sinc lowpass for 4x oversampling. Each of the
// four polyphase branches sums to 1, so the full table sums to 4.
var lowpass4 = [...]float64{
	-1.658437577130305e-05, -3.181232670095903e-05, -3.352015145106342e-05,
	-4.671859636728758e-06, 5.875352160012468e-05, 0.00013520653374628018,
	0.0001773896830432971, 0.0001312712384565898, -2.9455696595708266e-05,
	-0.00026983181693310954, -0.00048423704860093214, -0.0005285767549968089,
	-0.0002918895186311946, 0.0002207887293712792, 0.0008407869494875228,
	0.0012663041193296497, 0.0011830044939183499, 0.0004375890314515462,
	-0.0008167522338228116, -0.002095526952171281, -0.00273325133318234,
	-0.002182462740866956, -0.0003442238463218608, 0.0022397794211392232,
	0.004478006970946177, 0.0051359670969108855, 0.003432943922854553,
	-0.0004323908549797062, -0.005119749677828014, -0.008526238238920226,
	-0.008648934114947129, -0.004610862205796096, 0.002629500809523906,
	0.010316372839985715, 0.01483514831676312, 0.013287073876396941,
	0.005061696910505933, -0.0073665919847468305, -0.01897176826022916,
	-0.024056021897325516, -0.01884119998840754, -0.0036665732443587006,
	0.01633827942393259, 0.03272392666922933, 0.03705042853698633,
	0.024858954546110628, -0.0014564872871843408, -0.03242213012196274,
	-0.05449823348282212, -0.05554414988525402, -0.030688439278073416,
	0.013979988174388525, 0.061951552732907526, 0.09159528727337946,
	0.0847614306538222, 0.035583799847597505, -0.04417946127154801,
	-0.12602524050828023, -0.17240787925963671, -0.14921504832397428,
	-0.038851446962645905, 0.15091218372535148, 0.3860170497838923,
	0.614157015080748, 0.7795955332668679, 0.8399972586479154,
	0.7795955332668679, 0.614157015080748, 0.3860170497838923,
	0.15091218372535148, -0.038851446962645905, -0.14921504832397428,
	-0.17240787925963671, -0.12602524050828023, -0.04417946127154801,
	0.035583799847597505, 0.0847614306538222, 0.09159528727337946,
	0.061951552732907526, 0.013979988174388525, -0.030688439278073416,
	-0.05554414988525402, -0.05449823348282212, -0.03242213012196274,
	-0.0014564872871843408, 0.024858954546110628, 0.03705042853698633,
	0.03272392666922933, 0.01633827942393259, -0.0036665732443587006,
	-0.01884119998840754, -0.024056021897325516, -0.01897176826022916,
	-0.0073665919847468305, 0.005061696910505933, 0.013287073876396941,
	0.01483514831676312, 0.010316372839985715, 0.002629500809523906,
	-0.004610862205796096, -0.008648934114947129, -0.008526238238920226,
	-0.005119749677828014, -0.0004323908549797062, 0.003432943922854553,
	0.0051359670969108855, 0.004478006970946177, 0.0022397794211392232,
	-0.0003442238463218608, -0.002182462740866956, -0.00273325133318234,
	-0.002095526952171281, -0.0008167522338228116, 0.0004375890314515462,
	0.0011830044939183499, 0.0012663041193296497, 0.0008407869494875228,
	0.0002207887293712792, -0.0002918895186311946, -0.0005285767549968089,
	-0.00048423704860093214, -0.00026983181693310954, -2.9455696595708266e-05,
	0.0001312712384565898, 0.0001773896830432971, 0.00013520653374628018,
	5.875352160012468e-05, -4.671859636728758e-06, -3.352015145106342e-05,
	-3.181232670095903e-05, -1.658437577130305e-05,
}
